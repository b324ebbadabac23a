package task

import (
	"errors"
	"strings"
)

var (
	// ErrTaskNotFound indicates no task has the requested ID.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidInput indicates invalid task input.
	ErrInvalidInput = errors.New("invalid task input")
	// ErrAuthoritativeReadFailed indicates the remote copy could not be read
	// before a write.
	ErrAuthoritativeReadFailed = errors.New("authoritative read failed")
	// ErrWriteFailed indicates the remote table could not be replaced.
	ErrWriteFailed = errors.New("task write failed")
)

// ValidationError lists required fields that were left empty and fields
// whose value is not one of the accepted ones.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid values for: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
