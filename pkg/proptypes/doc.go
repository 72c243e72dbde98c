// Package proptypes provides the built-in property types for entity
// schemas. Every type renders values for the key capabilities it supports
// and restores values after they went through JSON storage.
//
// Comparable encodings preserve order: for two values a < b of the same
// type, ComparableBytes(a) sorts before ComparableBytes(b).
package proptypes
