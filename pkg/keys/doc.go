// Package keys derives storage keys for entities from typed property values.
//
// A key definition is an ordered list of entries:
//
//   - Constant: a literal string, contributes no property dependency.
//   - Property: one property, rendered through its ComparableEncoder so keys
//     sort in the same order as the property values.
//   - HashGroup: one or more properties, hashed together with SHA-256.
//
// Compile validates a definition against a types.Mapping once, when the
// entity schema is declared. The resulting CompiledKey is immutable and safe
// for concurrent use; Render turns property values into a key string.
//
// Rendered keys have the form
//
//	~<segment>~<segment>...
//
// where every segment is encoded with an order-preserving base64 alphabet.
// Neither the alphabet nor the escape codec emits '/', '\', '#', '?', ':' or
// control characters, so keys are safe as table-storage partition and row
// keys and as components of Redis keys.
//
// The older per-kind builders (StringKey, ConstantKey, CompositeKey and
// HashKey) produce the escape-codec format used by existing tables and are
// kept bit-for-bit compatible with it.
package keys
