package service

import "errors"

// Error taxonomy shared by all services. Handlers map these onto HTTP status
// codes; everything else surfaces as an internal error.
var (
	// ErrValidation marks a request rejected before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a reference to a missing or soft-deleted record.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks an operation that would violate the at-most-one
	// match invariant; the caller must unmatch first.
	ErrConflict = errors.New("conflict")
)
