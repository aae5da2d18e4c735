package domain

import (
	"errors"
	"fmt"
)

// Workflow error kinds. Every coordinator operation fails with exactly one of these.
var (
	ErrRoleViolation     = errors.New("role not permitted")
	ErrForbidden         = errors.New("access forbidden")
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrRequestClosed     = errors.New("blood request is closed")
	ErrDuplicateInterest = errors.New("donation interest already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

var (
	ErrProfileNotFound  = fmt.Errorf("profile %w", ErrNotFound)
	ErrRequestNotFound  = fmt.Errorf("blood request %w", ErrNotFound)
	ErrInterestNotFound = fmt.Errorf("donation interest %w", ErrNotFound)
)

// Authentication errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrRoleViolation, "role_violation"},
	{ErrForbidden, "forbidden"},
	{ErrValidation, "validation"},
	{ErrNotFound, "not_found"},
	{ErrRequestClosed, "request_closed"},
	{ErrDuplicateInterest, "duplicate_interest"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrStoreUnavailable, "store_unavailable"},
}

// Kind returns the short name of the workflow error kind carried by err, or
// an empty string when err is not a workflow error.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return ""
}

// Invalid builds a validation error naming the offending field.
func Invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}
