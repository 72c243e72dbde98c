// Package types defines the property type capabilities, the Mapping of an
// entity schema, the Table and Cupboard interfaces consumed by storage
// backends, and the error types shared by the key engine.
package types
