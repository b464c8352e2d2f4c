package store

import "errors"

// Sentinel errors. Callers branch with errors.Is; every store error
// wraps exactly one of these or the underlying driver error.
var (
	// ErrNotInitialized is returned by any operation against a store
	// whose database handle was never opened. Fatal to the calling
	// operation, not to the process.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when an entity is rejected before any
	// persistence attempt.
	ErrValidation = errors.New("validation failed")
)
