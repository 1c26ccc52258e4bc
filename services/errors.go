package services

import "errors"

// Client-fault categories surfaced to the HTTP layer. Persistence failures
// pass through wrapped, and anything not matching a sentinel maps to a 500.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrPermissionDenied = errors.New("access denied")
)
