package types

import (
	"errors"
	"fmt"
	"strings"
)

// Key definition and rendering errors.
var (
	ErrInvalidKey         = errors.New("invalid key")
	ErrInvalidEntry       = errors.New("invalid key entry")
	ErrUnknownEntry       = errors.New("unknown key entry kind")
	ErrNotComparable      = errors.New("property is not comparable")
	ErrNotHashable        = errors.New("property is not hashable")
	ErrNotStringable      = errors.New("property cannot be rendered as a string")
	ErrMissingProperty    = errors.New("missing property value")
	ErrHashUnavailable    = errors.New("hash algorithm unavailable")
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrInvalidName        = errors.New("invalid name")
	ErrDuplicateName      = errors.New("duplicate name")
	ErrInvalidValueType   = errors.New("invalid value type")
	ErrSchemaNotFound     = errors.New("schema not found")
	ErrUnknownProperty    = errors.New("property is not defined in mapping")
	ErrDefinitionTooShort = errors.New("key definition must have at least one entry")
)

// SchemaError reports a malformed key definition. It is raised while a
// schema is being declared, never while a key is rendered.
type SchemaError struct {
	// Reason is one of the sentinel errors above.
	Reason error
	// Entry is the offending entry, if any.
	Entry any
	// Definition is the full definition the entry belongs to.
	Definition any
	// Property names the referenced property, when the problem is
	// specific to one.
	Property string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema: ")
	b.WriteString(e.Reason.Error())
	if e.Property != "" {
		fmt.Fprintf(&b, " (property %q)", e.Property)
	}
	if e.Entry != nil {
		fmt.Fprintf(&b, " in entry %v", e.Entry)
	}
	if e.Definition != nil {
		fmt.Fprintf(&b, " of definition %v", e.Definition)
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return e.Reason }

// MissingPropertyError is returned when a key is rendered without a value
// for one of the properties it covers.
type MissingPropertyError struct {
	Property string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("unable to render key: missing value for property %q", e.Property)
}

func (e *MissingPropertyError) Unwrap() error { return ErrMissingProperty }

// CapabilityUnavailableError is returned by the startup capability probe
// when a required hash algorithm is not linked into the binary.
type CapabilityUnavailableError struct {
	Algorithm string
}

func (e *CapabilityUnavailableError) Error() string {
	return fmt.Sprintf("hash algorithm %s is not available", e.Algorithm)
}

func (e *CapabilityUnavailableError) Unwrap() error { return ErrHashUnavailable }
