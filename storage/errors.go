package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a backend has no entry under a name.
	ErrNotFound = errors.New("entry not found")
)
