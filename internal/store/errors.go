package store

import "errors"

// Sentinel errors for store operations.
// Wrap with context using fmt.Errorf("%w: details", ErrXxx) and check
// with errors.Is().
var (
	// ErrInvalidEmail indicates an email value failed format validation.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrUnknownField indicates an update named a field outside the
	// updatable set {name, email, status}.
	ErrUnknownField = errors.New("unknown field")
)
