package keys

import (
	"crypto"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// CompositeSeparator joins the values of a CompositeKey. It sorts after
// every character EncodeStringKey emits, which keeps prefix matching on
// composite row keys possible. Do not change it.
const CompositeSeparator = "~"

// StringKeyRenderer renders a single property through its StringEncoder.
type StringKeyRenderer struct {
	name string
	enc  types.StringEncoder
}

// ConstantKeyRenderer always renders the same literal.
type ConstantKeyRenderer struct {
	constant string
	encoded  string
}

// CompositeKeyRenderer renders several properties joined by
// CompositeSeparator.
type CompositeKeyRenderer struct {
	names []string
	encs  []types.StringEncoder
}

// HashKeyRenderer renders the hex digest of several properties. The digest
// depends on the order of the properties.
type HashKeyRenderer struct {
	names   []string
	hashers []types.Hasher
	hash    crypto.Hash
}

var (
	_ Key = (*StringKeyRenderer)(nil)
	_ Key = (*ConstantKeyRenderer)(nil)
	_ Key = (*CompositeKeyRenderer)(nil)
	_ Key = (*HashKeyRenderer)(nil)
)

// StringKey declares a key holding the escaped string form of one property.
func StringKey(name string) Builder {
	return func(m *types.Mapping) (Key, error) {
		enc, err := lookupStringEncoder(m, name, "StringKey")
		if err != nil {
			return nil, err
		}
		return &StringKeyRenderer{name: name, enc: enc}, nil
	}
}

// Covers returns the wrapped property name.
func (k *StringKeyRenderer) Covers() []string { return []string{k.name} }

// Exact renders the escaped string form of the property.
func (k *StringKeyRenderer) Exact(props types.Properties) (string, error) {
	if err := checkPresent([]string{k.name}, props); err != nil {
		return "", err
	}
	s, err := k.enc.KeyString(props[k.name])
	if err != nil {
		return "", fmt.Errorf("rendering property %q: %w", k.name, err)
	}
	return EncodeStringKey(s), nil
}

// ConstantKey declares a key that ignores the properties. The empty string
// is allowed; it encodes to "!".
func ConstantKey(constant string) Builder {
	return func(*types.Mapping) (Key, error) {
		return &ConstantKeyRenderer{constant: constant, encoded: EncodeStringKey(constant)}, nil
	}
}

// Covers returns nil; a constant key depends on no property.
func (k *ConstantKeyRenderer) Covers() []string { return nil }

// Exact returns the encoded constant.
func (k *ConstantKeyRenderer) Exact(types.Properties) (string, error) {
	return k.encoded, nil
}

// CompositeKey declares a key joining the escaped string forms of the
// named properties.
func CompositeKey(names ...string) Builder {
	return func(m *types.Mapping) (Key, error) {
		if len(names) == 0 {
			return nil, &types.SchemaError{Reason: fmt.Errorf("%w: CompositeKey needs at least one property", types.ErrInvalidEntry)}
		}
		k := &CompositeKeyRenderer{
			names: append([]string(nil), names...),
			encs:  make([]types.StringEncoder, len(names)),
		}
		for i, name := range names {
			enc, err := lookupStringEncoder(m, name, "CompositeKey")
			if err != nil {
				return nil, err
			}
			k.encs[i] = enc
		}
		return k, nil
	}
}

// Covers returns the property names in declaration order.
func (k *CompositeKeyRenderer) Covers() []string {
	return append([]string(nil), k.names...)
}

// Exact renders every property and joins them with CompositeSeparator.
func (k *CompositeKeyRenderer) Exact(props types.Properties) (string, error) {
	if err := checkPresent(k.names, props); err != nil {
		return "", err
	}
	parts := make([]string, len(k.names))
	for i, name := range k.names {
		s, err := k.encs[i].KeyString(props[name])
		if err != nil {
			return "", fmt.Errorf("rendering property %q: %w", name, err)
		}
		parts[i] = EncodeStringKey(s)
	}
	return strings.Join(parts, CompositeSeparator), nil
}

// HashKey declares a key holding the SHA-512 hex digest of the named
// properties. HashKey("a", "b") and HashKey("b", "a") produce different
// keys for the same values.
func HashKey(names ...string) Builder {
	return func(m *types.Mapping) (Key, error) {
		return newHashKey(m, names, LegacyKeyHash)
	}
}

func newHashKey(m *types.Mapping, names []string, h crypto.Hash) (*HashKeyRenderer, error) {
	if err := CheckHashAvailable(h); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, &types.SchemaError{Reason: fmt.Errorf("%w: HashKey needs at least one property", types.ErrInvalidEntry)}
	}
	k := &HashKeyRenderer{
		names:   append([]string(nil), names...),
		hashers: make([]types.Hasher, len(names)),
		hash:    h,
	}
	for i, name := range names {
		typ, ok := m.Lookup(name)
		if !ok {
			return nil, &types.SchemaError{Reason: types.ErrUnknownProperty, Entry: "HashKey", Definition: names, Property: name}
		}
		hasher, ok := typ.(types.Hasher)
		if !ok {
			return nil, &types.SchemaError{Reason: types.ErrNotHashable, Entry: "HashKey", Definition: names, Property: name}
		}
		k.hashers[i] = hasher
	}
	return k, nil
}

// Covers returns the property names in declaration order.
func (k *HashKeyRenderer) Covers() []string {
	return append([]string(nil), k.names...)
}

// Exact renders the lowercase hex digest.
func (k *HashKeyRenderer) Exact(props types.Properties) (string, error) {
	if err := checkPresent(k.names, props); err != nil {
		return "", err
	}
	h := k.hash.New()
	for i, name := range k.names {
		s, err := k.hashers[i].HashString(props[name])
		if err != nil {
			return "", fmt.Errorf("hashing property %q: %w", name, err)
		}
		h.Write([]byte(s))
		if i+1 < len(k.names) {
			h.Write([]byte(legacyHashSeparator))
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func lookupStringEncoder(m *types.Mapping, name, kind string) (types.StringEncoder, error) {
	typ, ok := m.Lookup(name)
	if !ok {
		return nil, &types.SchemaError{Reason: types.ErrUnknownProperty, Entry: kind, Property: name}
	}
	enc, ok := typ.(types.StringEncoder)
	if !ok {
		return nil, &types.SchemaError{Reason: types.ErrNotStringable, Entry: kind, Property: name}
	}
	return enc, nil
}
