// Package uid generates identifiers used across modules.
//
// NumberID produces sortable int64 primary keys, StringID produces opaque
// strings such as correlation IDs, opaque tokens and object keys.
package uid

// NumberID generates int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
