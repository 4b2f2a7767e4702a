package crdt

import "errors"

var (
	// ErrTypeMismatch is returned when two values of different concrete
	// CRDT types are merged or compared. Merging across types has no
	// defined lattice, so the operation is rejected.
	ErrTypeMismatch = errors.New("crdt: mismatched CRDT types")

	// ErrUnknownField is returned by a field-targeted update that names a
	// field the composite does not carry.
	ErrUnknownField = errors.New("crdt: unknown composite field")

	// ErrFieldMismatch is returned when two composites with different
	// field sets are merged. A composite merge is defined only when every
	// field pairs up by name.
	ErrFieldMismatch = errors.New("crdt: composite field sets differ")
)
