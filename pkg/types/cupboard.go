package types

import "errors"

// Cupboard defines the interface for backend-agnostic storage access.
// Callers attach to a backend, access tables by schema name, and detach
// when done.
type Cupboard interface {
	// GetTable returns the Table for the named schema.
	// Returns ErrTableNotFound if no schema with that name was attached.
	GetTable(name string) (Table, error)

	// Attach connects the Cupboard to the backend described by config and
	// serves one table per schema in schemas. Returns ErrAlreadyAttached if
	// called while already attached.
	Attach(config Config, schemas SchemaSource) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations on tables return ErrCupboardDetached.
	Detach() error
}

// Cupboard lifecycle errors.
var (
	ErrCupboardDetached = errors.New("cupboard is detached")
	ErrAlreadyAttached  = errors.New("cupboard is already attached")
	ErrTableNotFound    = errors.New("table not found")
)
