package store

import "errors"

// Error kinds returned by store operations. Callers classify with
// errors.Is; the API layer maps them to HTTP statuses.
var (
	// ErrNotFound means the referenced reservation, item, parent or user
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized means the acting user is not allowed to perform
	// the operation (non-owner, or non-admin where admin is required).
	// Returned before any mutation happens.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation means the input was malformed: non-positive
	// quantity, empty required field, empty item selection, or an item
	// that is no longer available.
	ErrValidation = errors.New("validation failed")

	// ErrInvariant means the operation would corrupt inventory state,
	// e.g. drive a quantity counter negative or restock an
	// already-terminal reservation. The enclosing transaction is rolled
	// back entirely.
	ErrInvariant = errors.New("invariant violation")
)
