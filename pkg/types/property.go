package types

import "fmt"

// Properties holds concrete property values for one entity, keyed by
// property name. Values are plain Go values; each PropertyType decides
// which Go types it accepts.
type Properties map[string]any

// PropertyType is implemented by every type adapter. The remaining
// capabilities are optional and discovered by type assertion; a property
// can only appear in a key entry whose capability its type provides.
type PropertyType interface {
	// TypeName returns the name used for the type in schema files.
	TypeName() string
}

// StringEncoder renders a value as a plain string. Used by StringKey and
// CompositeKey before escaping.
type StringEncoder interface {
	KeyString(value any) (string, error)
}

// Hasher renders a value as the string fed into a HashKey digest.
type Hasher interface {
	HashString(value any) (string, error)
}

// HashableEncoder renders a value as the bytes fed into a hash-group
// digest. Equal values must produce equal bytes.
type HashableEncoder interface {
	HashableBytes(value any) ([]byte, error)
}

// ComparableEncoder renders a value as bytes whose lexicographic order
// matches the natural order of the values.
type ComparableEncoder interface {
	ComparableBytes(value any) ([]byte, error)
}

// ValueDecoder converts a value that went through a JSON round trip back
// to the Go value the type expects (for example a string back to a
// time.Time). Types without a decoder keep the JSON-decoded value.
type ValueDecoder interface {
	DecodeValue(value any) (any, error)
}

// StringParser converts command-line or query-string text to the Go value
// the type expects. It is the inverse of StringEncoder for types that have
// both.
type StringParser interface {
	ParseString(s string) (any, error)
}

// Mapping associates property names with their types, in declaration
// order. Names are unique. A Mapping is built once per entity schema and
// treated as read-only afterwards.
type Mapping struct {
	names []string
	types map[string]PropertyType
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{types: make(map[string]PropertyType)}
}

// Add registers a property. Returns ErrInvalidName if name is empty,
// ErrDuplicateName if it is already mapped and ErrInvalidValueType if
// typ is nil.
func (m *Mapping) Add(name string, typ PropertyType) error {
	if name == "" {
		return ErrInvalidName
	}
	if typ == nil {
		return fmt.Errorf("property %q: %w", name, ErrInvalidValueType)
	}
	if _, ok := m.types[name]; ok {
		return fmt.Errorf("property %q: %w", name, ErrDuplicateName)
	}
	m.names = append(m.names, name)
	m.types[name] = typ
	return nil
}

// MustAdd is like Add but panics on error. Intended for schemas declared
// in package-level variables.
func (m *Mapping) MustAdd(name string, typ PropertyType) *Mapping {
	if err := m.Add(name, typ); err != nil {
		panic(err)
	}
	return m
}

// Lookup returns the type mapped to name.
func (m *Mapping) Lookup(name string) (PropertyType, bool) {
	if m == nil {
		return nil, false
	}
	t, ok := m.types[name]
	return t, ok
}

// Names returns the mapped property names in declaration order.
func (m *Mapping) Names() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Len returns the number of mapped properties.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}
