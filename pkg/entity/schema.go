package entity

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mesh-intelligence/entitykeys/pkg/keys"
	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// Definition declares an entity schema.
type Definition struct {
	Name string
	// Version is stored with every entity written through the schema.
	// Zero means 1.
	Version      int
	Properties   *types.Mapping
	PartitionKey keys.Builder
	RowKey       keys.Builder
}

// Schema is a configured entity schema. It is immutable and safe for
// concurrent use.
type Schema struct {
	name      string
	version   int
	mapping   *types.Mapping
	partition keys.Key
	row       keys.Key
}

var _ types.TableSchema = (*Schema)(nil)

// Configure validates def and binds its keys to its mapping. It runs the
// hash capability probe first; any error aborts the declaration.
func Configure(def Definition) (*Schema, error) {
	if err := keys.CheckCapabilities(); err != nil {
		return nil, err
	}
	if def.Name == "" {
		return nil, fmt.Errorf("entity name: %w", types.ErrInvalidName)
	}
	if def.Version < 0 {
		return nil, fmt.Errorf("entity %q: %w: version must not be negative", def.Name, types.ErrInvalidEntry)
	}
	if def.Properties == nil {
		def.Properties = types.NewMapping()
	}
	if def.PartitionKey == nil || def.RowKey == nil {
		return nil, fmt.Errorf("entity %q: %w: partition and row keys are required", def.Name, types.ErrInvalidEntry)
	}

	partition, err := def.PartitionKey(def.Properties)
	if err != nil {
		return nil, fmt.Errorf("entity %q partition key: %w", def.Name, err)
	}
	row, err := def.RowKey(def.Properties)
	if err != nil {
		return nil, fmt.Errorf("entity %q row key: %w", def.Name, err)
	}

	version := def.Version
	if version == 0 {
		version = 1
	}
	return &Schema{
		name:      def.Name,
		version:   version,
		mapping:   def.Properties,
		partition: partition,
		row:       row,
	}, nil
}

// MustConfigure is like Configure but panics on error.
func MustConfigure(def Definition) *Schema {
	s, err := Configure(def)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Name() string            { return s.name }
func (s *Schema) Version() int            { return s.version }
func (s *Schema) Mapping() *types.Mapping { return s.mapping }

// Covers returns the properties needed to address an entity, partition key
// first, without duplicates.
func (s *Schema) Covers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range append(s.partition.Covers(), s.row.Covers()...) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// PartitionCovers returns the properties the partition key depends on.
func (s *Schema) PartitionCovers() []string { return s.partition.Covers() }

// RowCovers returns the properties the row key depends on.
func (s *Schema) RowCovers() []string { return s.row.Covers() }

// Keys renders the partition and row keys for props.
func (s *Schema) Keys(props types.Properties) (partition, row string, err error) {
	partition, err = s.partition.Exact(props)
	if err != nil {
		return "", "", fmt.Errorf("%s partition key: %w", s.name, err)
	}
	row, err = s.row.Exact(props)
	if err != nil {
		return "", "", fmt.Errorf("%s row key: %w", s.name, err)
	}
	return partition, row, nil
}

// PartitionKey renders only the partition key, for listing a partition.
func (s *Schema) PartitionKey(props types.Properties) (string, error) {
	pk, err := s.partition.Exact(props)
	if err != nil {
		return "", fmt.Errorf("%s partition key: %w", s.name, err)
	}
	return pk, nil
}

// Validate checks that every property in props is mapped and, for types
// that decode values, that the value is accepted. Nil values are allowed.
func (s *Schema) Validate(props types.Properties) error {
	for name, v := range props {
		typ, ok := s.mapping.Lookup(name)
		if !ok {
			return fmt.Errorf("%s: property %q: %w", s.name, name, types.ErrUnknownProperty)
		}
		if v == nil {
			continue
		}
		if dec, ok := typ.(types.ValueDecoder); ok {
			if _, err := dec.DecodeValue(v); err != nil {
				return fmt.Errorf("%s: property %q: %w", s.name, name, err)
			}
		}
	}
	return nil
}

// DecodeProperties converts raw values, typically from JSON or the command
// line, to the Go values the mapped types expect.
func (s *Schema) DecodeProperties(raw map[string]any) (types.Properties, error) {
	out := make(types.Properties, len(raw))
	for name, v := range raw {
		typ, ok := s.mapping.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%s: property %q: %w", s.name, name, types.ErrUnknownProperty)
		}
		if dec, ok := typ.(types.ValueDecoder); ok && v != nil {
			decoded, err := dec.DecodeValue(v)
			if err != nil {
				return nil, fmt.Errorf("%s: property %q: %w", s.name, name, err)
			}
			v = decoded
		}
		out[name] = v
	}
	return out, nil
}

// ParseProperties converts name=value text, as given on a command line, to
// typed values. Types without a parser keep the text unchanged.
func (s *Schema) ParseProperties(raw map[string]string) (types.Properties, error) {
	out := make(types.Properties, len(raw))
	for name, text := range raw {
		typ, ok := s.mapping.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%s: property %q: %w", s.name, name, types.ErrUnknownProperty)
		}
		p, ok := typ.(types.StringParser)
		if !ok {
			out[name] = text
			continue
		}
		v, err := p.ParseString(text)
		if err != nil {
			return nil, fmt.Errorf("%s: property %q: %w", s.name, name, err)
		}
		out[name] = v
	}
	return out, nil
}

// Registry holds configured schemas by name.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

var _ types.SchemaSource = (*Registry)(nil)

// NewRegistry returns a registry holding schemas.
func NewRegistry(schemas ...*Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]*Schema)}
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds s. Returns ErrDuplicateName if a schema with the same name
// is already registered.
func (r *Registry) Register(s *Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schemas[s.name]; ok {
		return fmt.Errorf("entity %q: %w", s.name, types.ErrDuplicateName)
	}
	r.schemas[s.name] = s
	return nil
}

// Get returns the named schema or an error wrapping ErrSchemaNotFound.
func (r *Registry) Get(name string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("entity %q: %w", name, types.ErrSchemaNotFound)
	}
	return s, nil
}

// Schema implements types.SchemaSource.
func (r *Registry) Schema(name string) (types.TableSchema, bool) {
	s, err := r.Get(name)
	if err != nil {
		return nil, false
	}
	return s, true
}

// Names returns the registered schema names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
