package types

import (
	"context"
	"errors"
	"time"
)

// Entity is a stored record together with the address it was stored at.
type Entity struct {
	Table        string     `json:"table"`
	PartitionKey string     `json:"partition_key"`
	RowKey       string     `json:"row_key"`
	Version      int        `json:"version"`    // Schema version the entity was written with.
	ETag         string     `json:"etag"`       // UUID v7, regenerated on every Put.
	Properties   Properties `json:"properties"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Table provides put/get/delete/list for a single entity schema. Every
// operation renders the partition and row keys from the supplied
// properties through the schema; callers never build keys by hand.
type Table interface {
	// Put creates or replaces the entity addressed by props.
	Put(ctx context.Context, props Properties) (*Entity, error)

	// Get loads the entity addressed by props. Only the properties covered
	// by the partition and row keys are required.
	// Returns ErrNotFound if no entity exists at that address.
	Get(ctx context.Context, props Properties) (*Entity, error)

	// Delete removes the entity addressed by props.
	// Returns ErrNotFound if no entity exists at that address.
	Delete(ctx context.Context, props Properties) error

	// List returns every entity in the partition addressed by props,
	// ordered by row key.
	List(ctx context.Context, props Properties) ([]*Entity, error)
}

// TableSchema is the part of an entity schema a backend needs: key
// rendering and property validation.
type TableSchema interface {
	Name() string
	Version() int
	// Keys renders the partition and row keys for props.
	Keys(props Properties) (partition, row string, err error)
	// PartitionKey renders only the partition key.
	PartitionKey(props Properties) (string, error)
	// Validate checks that every supplied property is mapped and accepted
	// by its type.
	Validate(props Properties) error
	// DecodeProperties restores typed values after a JSON round trip.
	DecodeProperties(raw map[string]any) (Properties, error)
}

// SchemaSource provides the schemas a Cupboard serves tables for.
type SchemaSource interface {
	Schema(name string) (TableSchema, bool)
	Names() []string
}

// Table operation errors.
var (
	ErrNotFound    = errors.New("entity not found")
	ErrInvalidData = errors.New("invalid entity data")
)
