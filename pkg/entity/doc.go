// Package entity declares entity schemas: a property mapping plus the
// partition and row keys rendered from it.
//
// Schemas are declared in Go through Definition and Configure, or loaded
// from YAML schema files through Parse and LoadFile. Either way, every key
// definition is validated when the schema is configured; a schema that
// configures without error renders keys without schema errors.
package entity
