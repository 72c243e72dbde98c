package entity

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/entitykeys/pkg/keys"
	"github.com/mesh-intelligence/entitykeys/pkg/proptypes"
	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// ErrMalformedFile is returned when a schema file is not valid YAML or
// carries unknown fields.
var ErrMalformedFile = errors.New("malformed schema file")

// File is the top-level shape of a schema file.
type File struct {
	Entities []EntitySpec `yaml:"entities"`
}

// EntitySpec is one entity in a schema file.
type EntitySpec struct {
	Name         string       `yaml:"name"`
	Version      int          `yaml:"version"`
	Properties   PropertyList `yaml:"properties"`
	PartitionKey KeySpec      `yaml:"partitionKey"`
	RowKey       KeySpec      `yaml:"rowKey"`
}

// PropertySpec maps a property name to a built-in type name.
type PropertySpec struct {
	Name string
	Type string
}

// PropertyList is a YAML mapping of property names to type names that
// keeps the order the names were written in.
type PropertyList []PropertySpec

// UnmarshalYAML decodes a mapping node in document order.
func (l *PropertyList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping of name to type", node.Line)
	}
	out := make(PropertyList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: property entries must be name: type", k.Line)
		}
		out = append(out, PropertySpec{Name: k.Value, Type: v.Value})
	}
	*l = out
	return nil
}

// KeySpec declares a key in a schema file. Exactly one field must be set.
type KeySpec struct {
	String    *string          `yaml:"string,omitempty"`
	Constant  *string          `yaml:"constant,omitempty"`
	Composite []string         `yaml:"composite,omitempty"`
	Hash      []string         `yaml:"hash,omitempty"`
	Entries   []keys.EntrySpec `yaml:"entries,omitempty"`
}

// Builder returns the key builder the spec declares.
func (s KeySpec) Builder() (keys.Builder, error) {
	set := 0
	for _, ok := range []bool{s.String != nil, s.Constant != nil, s.Composite != nil, s.Hash != nil, s.Entries != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, &types.SchemaError{
			Reason: fmt.Errorf("%w: key must carry exactly one of string, constant, composite, hash or entries", types.ErrInvalidEntry),
			Entry:  s,
		}
	}
	switch {
	case s.String != nil:
		return keys.StringKey(*s.String), nil
	case s.Constant != nil:
		return keys.ConstantKey(*s.Constant), nil
	case s.Composite != nil:
		return keys.CompositeKey(s.Composite...), nil
	case s.Hash != nil:
		return keys.HashKey(s.Hash...), nil
	default:
		def, err := keys.ParseDefinition(s.Entries)
		if err != nil {
			return nil, err
		}
		return keys.Entries(def...), nil
	}
}

// Definition converts the spec to a Definition, resolving type names
// against the built-in types.
func (s EntitySpec) Definition() (Definition, error) {
	m := types.NewMapping()
	for _, p := range s.Properties {
		typ, err := proptypes.Lookup(p.Type)
		if err != nil {
			return Definition{}, fmt.Errorf("entity %q property %q: %w", s.Name, p.Name, err)
		}
		if err := m.Add(p.Name, typ); err != nil {
			return Definition{}, fmt.Errorf("entity %q: %w", s.Name, err)
		}
	}
	pk, err := s.PartitionKey.Builder()
	if err != nil {
		return Definition{}, fmt.Errorf("entity %q partition key: %w", s.Name, err)
	}
	rk, err := s.RowKey.Builder()
	if err != nil {
		return Definition{}, fmt.Errorf("entity %q row key: %w", s.Name, err)
	}
	return Definition{
		Name:         s.Name,
		Version:      s.Version,
		Properties:   m,
		PartitionKey: pk,
		RowKey:       rk,
	}, nil
}

// Parse reads a schema file and configures every entity in it. Unknown
// fields are rejected. An empty document yields an empty registry.
func Parse(data []byte) (*Registry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}

	reg, _ := NewRegistry()
	for _, es := range f.Entities {
		def, err := es.Definition()
		if err != nil {
			return nil, err
		}
		s, err := Configure(def)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(s); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// LoadFile reads and parses the schema file at path.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return Parse(data)
}
