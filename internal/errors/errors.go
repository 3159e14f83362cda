package errors

import (
	"errors"
	"fmt"
)

// Domain sentinels. Repositories and services return these (possibly
// wrapped); the HTTP layer maps them via Map.
var (
	// ErrNotFound means a referenced match/brief/partner/client does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the caller is not a party to the entity being
	// mutated. Raised before any state mutation occurs.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is an optimistic-lock failure that survived the bounded
	// in-repository retries. Transient; callers may retry the request.
	ErrConflict = errors.New("conflict")
)

// ValidationError carries field-level detail for malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid creates a field-level validation error.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFound wraps ErrNotFound with the entity kind for logs.
func NotFound(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrNotFound)
}

// Forbidden wraps ErrForbidden with a short explanation for logs.
func Forbidden(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrForbidden)
}
