package keys

import (
	"crypto"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// Key renders a storage key from property values. Implementations are
// immutable and safe for concurrent use.
type Key interface {
	// Covers returns the names of the properties the key depends on.
	Covers() []string

	// Exact renders the key. Returns a *types.MissingPropertyError if a
	// covered property has no value.
	Exact(props types.Properties) (string, error)
}

// Builder binds a key declaration to the mapping of the schema it is used
// in. Schemas hold builders and call them once, at declaration time.
type Builder func(m *types.Mapping) (Key, error)

// CompiledKey is a validated key definition bound to a mapping.
type CompiledKey struct {
	definition Definition
	entries    []compiledEntry
	covers     []string
	hash       crypto.Hash
}

// compiledEntry caches the adapters an entry renders through.
type compiledEntry struct {
	constant   []byte
	name       string
	comparable types.ComparableEncoder
	names      []string
	hashables  []types.HashableEncoder
}

var _ Key = (*CompiledKey)(nil)

// Compile validates def against m and returns the compiled key. Every
// problem is reported as a *types.SchemaError naming the offending entry
// and the full definition.
func Compile(def Definition, m *types.Mapping) (*CompiledKey, error) {
	return compile(def, m, CompiledKeyHash)
}

// Entries returns a Builder that compiles def against the schema mapping.
func Entries(def ...Entry) Builder {
	return func(m *types.Mapping) (Key, error) {
		return Compile(Definition(def), m)
	}
}

func compile(def Definition, m *types.Mapping, h crypto.Hash) (*CompiledKey, error) {
	if len(def) == 0 {
		return nil, &types.SchemaError{Reason: types.ErrDefinitionTooShort, Definition: def}
	}
	schemaErr := func(reason error, e Entry, property string) error {
		return &types.SchemaError{Reason: reason, Entry: e, Definition: def, Property: property}
	}

	entries := make([]compiledEntry, 0, len(def))
	usesHash := false
	for _, e := range def {
		switch e := e.(type) {
		case Constant:
			if e.Value == "" {
				return nil, schemaErr(fmt.Errorf("%w: constant must be a non-empty string", types.ErrInvalidEntry), e, "")
			}
			entries = append(entries, compiledEntry{constant: []byte(e.Value)})

		case Property:
			if e.Name == "" {
				return nil, schemaErr(fmt.Errorf("%w: property must be a non-empty name", types.ErrInvalidEntry), e, "")
			}
			typ, ok := m.Lookup(e.Name)
			if !ok {
				return nil, schemaErr(types.ErrUnknownProperty, e, e.Name)
			}
			enc, ok := typ.(types.ComparableEncoder)
			if !ok {
				return nil, schemaErr(types.ErrNotComparable, e, e.Name)
			}
			entries = append(entries, compiledEntry{name: e.Name, comparable: enc})

		case HashGroup:
			if len(e.Names) == 0 {
				return nil, schemaErr(fmt.Errorf("%w: hash must reference at least one property", types.ErrInvalidEntry), e, "")
			}
			ce := compiledEntry{
				names:     make([]string, len(e.Names)),
				hashables: make([]types.HashableEncoder, len(e.Names)),
			}
			copy(ce.names, e.Names)
			for i, name := range e.Names {
				typ, ok := m.Lookup(name)
				if !ok {
					return nil, schemaErr(types.ErrUnknownProperty, e, name)
				}
				enc, ok := typ.(types.HashableEncoder)
				if !ok {
					return nil, schemaErr(types.ErrNotHashable, e, name)
				}
				ce.hashables[i] = enc
			}
			entries = append(entries, ce)
			usesHash = true

		default:
			return nil, schemaErr(types.ErrUnknownEntry, e, "")
		}
	}

	if usesHash {
		if err := CheckHashAvailable(h); err != nil {
			return nil, err
		}
	}

	stored := make(Definition, len(def))
	copy(stored, def)
	return &CompiledKey{
		definition: stored,
		entries:    entries,
		covers:     coversOf(def),
		hash:       h,
	}, nil
}

// coversOf lists the referenced property names, deduplicated by first
// occurrence.
func coversOf(def Definition) []string {
	seen := make(map[string]bool)
	var covers []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			covers = append(covers, name)
		}
	}
	for _, e := range def {
		switch e := e.(type) {
		case Property:
			add(e.Name)
		case HashGroup:
			for _, n := range e.Names {
				add(n)
			}
		}
	}
	return covers
}

// Covers returns the referenced property names in first-occurrence order.
func (k *CompiledKey) Covers() []string {
	out := make([]string, len(k.covers))
	copy(out, k.covers)
	return out
}

// Definition returns a copy of the definition the key was compiled from.
func (k *CompiledKey) Definition() Definition {
	out := make(Definition, len(k.definition))
	copy(out, k.definition)
	return out
}

func (k *CompiledKey) String() string {
	return "Key" + k.definition.String()
}

// Render builds the key for props. The result is a pure function of the
// definition, the mapping and props.
func (k *CompiledKey) Render(props types.Properties) (string, error) {
	if err := checkPresent(k.covers, props); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteByte(KeyPrefix)
	for i, e := range k.entries {
		if i > 0 {
			b.WriteByte(KeySeparator)
		}
		seg, err := k.segment(e, props)
		if err != nil {
			return "", err
		}
		b.WriteString(EncodeSegment(seg))
	}
	return b.String(), nil
}

// Exact is Render; it lets CompiledKey stand in wherever a Key is used.
func (k *CompiledKey) Exact(props types.Properties) (string, error) {
	return k.Render(props)
}

func (k *CompiledKey) segment(e compiledEntry, props types.Properties) ([]byte, error) {
	switch {
	case e.constant != nil:
		return e.constant, nil

	case e.comparable != nil:
		data, err := e.comparable.ComparableBytes(props[e.name])
		if err != nil {
			return nil, fmt.Errorf("rendering property %q: %w", e.name, err)
		}
		return data, nil

	default:
		h := k.hash.New()
		for i, name := range e.names {
			data, err := e.hashables[i].HashableBytes(props[name])
			if err != nil {
				return nil, fmt.Errorf("hashing property %q: %w", name, err)
			}
			h.Write(data)
			if i+1 < len(e.names) {
				h.Write([]byte(compiledHashSeparator))
			}
		}
		return h.Sum(nil), nil
	}
}

// checkPresent returns a MissingPropertyError for the first name in names
// that has no value in props. A nil value counts as missing.
func checkPresent(names []string, props types.Properties) error {
	for _, name := range names {
		if v, ok := props[name]; !ok || v == nil {
			return &types.MissingPropertyError{Property: name}
		}
	}
	return nil
}
