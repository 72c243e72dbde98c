package keys

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// Entry is one element of a key definition. The set of implementations is
// closed: Constant, Property and HashGroup.
type Entry interface {
	entry()
	String() string
}

// Constant is a literal key segment. Constants are written by schema
// authors and are not escaped.
type Constant struct {
	Value string
}

// Property is a key segment holding one comparable property.
type Property struct {
	Name string
}

// HashGroup is a key segment holding a digest of one or more hashable
// properties, in order.
type HashGroup struct {
	Names []string
}

func (Constant) entry() {}
func (Property) entry() {}
func (HashGroup) entry() {}

func (c Constant) String() string { return fmt.Sprintf("{constant: %q}", c.Value) }
func (p Property) String() string { return fmt.Sprintf("{property: %q}", p.Name) }
func (h HashGroup) String() string {
	quoted := make([]string, len(h.Names))
	for i, n := range h.Names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return "{hash: [" + strings.Join(quoted, ", ") + "]}"
}

// Hash returns a HashGroup over names.
func Hash(names ...string) HashGroup {
	return HashGroup{Names: names}
}

// Definition is an ordered key definition. Order determines the byte
// layout of the key and therefore sort order and hash input order.
type Definition []Entry

func (d Definition) String() string {
	parts := make([]string, len(d))
	for i, e := range d {
		if e == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// EntrySpec is the declarative form of an Entry, as found in schema files.
// Exactly one field must be set.
type EntrySpec struct {
	Constant *string  `json:"constant,omitempty" yaml:"constant,omitempty"`
	Property *string  `json:"property,omitempty" yaml:"property,omitempty"`
	Hash     []string `json:"hash,omitempty" yaml:"hash,omitempty"`
}

func (s EntrySpec) String() string {
	var parts []string
	if s.Constant != nil {
		parts = append(parts, fmt.Sprintf("constant: %q", *s.Constant))
	}
	if s.Property != nil {
		parts = append(parts, fmt.Sprintf("property: %q", *s.Property))
	}
	if s.Hash != nil {
		parts = append(parts, fmt.Sprintf("hash: %q", s.Hash))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ParseEntry converts a declarative entry to an Entry. An entry with no
// field set, or with more than one, is rejected as ambiguous.
func ParseEntry(spec EntrySpec) (Entry, error) {
	set := 0
	if spec.Constant != nil {
		set++
	}
	if spec.Property != nil {
		set++
	}
	if spec.Hash != nil {
		set++
	}
	if set != 1 {
		return nil, &types.SchemaError{
			Reason: fmt.Errorf("%w: entry must carry exactly one of constant, property or hash", types.ErrInvalidEntry),
			Entry:  spec,
		}
	}
	switch {
	case spec.Constant != nil:
		return Constant{Value: *spec.Constant}, nil
	case spec.Property != nil:
		return Property{Name: *spec.Property}, nil
	default:
		names := make([]string, len(spec.Hash))
		copy(names, spec.Hash)
		return HashGroup{Names: names}, nil
	}
}

// ParseDefinition converts declarative entries to a Definition. Entry
// errors are annotated with the full definition.
func ParseDefinition(specs []EntrySpec) (Definition, error) {
	def := make(Definition, 0, len(specs))
	for _, s := range specs {
		e, err := ParseEntry(s)
		if err != nil {
			if se, ok := err.(*types.SchemaError); ok {
				se.Definition = specs
			}
			return nil, err
		}
		def = append(def, e)
	}
	return def, nil
}
