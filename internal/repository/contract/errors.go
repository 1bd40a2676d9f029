package contract

import "errors"

var (
	// ErrNotFound is returned by mutating calls that target a row that does not exist.
	// Lookups return (nil, nil) instead.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert violates a unique key.
	ErrDuplicate = errors.New("duplicate record")
)
