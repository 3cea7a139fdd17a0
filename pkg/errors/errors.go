package helpbridge_errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrDuplicatePending   = errors.New("a pending request with this helper already exists")
	ErrInvalidState       = errors.New("request is already processed")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAlreadyExists      = errors.New("already exists")
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrInternal           = errors.New("internal failure")
)

var known = []error{
	ErrUnauthorized,
	ErrForbidden,
	ErrNotFound,
	ErrInvalidOperation,
	ErrDuplicatePending,
	ErrInvalidState,
	ErrInvalidInput,
	ErrAlreadyExists,
	ErrRateLimited,
	ErrServiceUnavailable,
	ErrInternal,
}

// IsKnown reports whether err belongs to the taxonomy above.
func IsKnown(err error) bool {
	for _, k := range known {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// Internal wraps storage and transport faults into ErrInternal.
// Errors that already carry a known kind pass through untouched.
func Internal(err error) error {
	if err == nil || IsKnown(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}
