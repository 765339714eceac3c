package query

import "errors"

// Sentinel errors reported by the query builder. Wrapped errors carry the
// offending field or value; use errors.Is to classify.
var (
	// ErrInvalidOperator indicates an unrecognized comparison operator.
	ErrInvalidOperator = errors.New("invalid comparison operator")

	// ErrInvalidFilterShape indicates a malformed condition mapping: a missing
	// field name, or a mapping with more or fewer entries than expected.
	ErrInvalidFilterShape = errors.New("invalid filter shape")

	// ErrInvalidArgument indicates an out-of-range argument, such as a
	// negative limit or offset.
	ErrInvalidArgument = errors.New("invalid argument")
)
