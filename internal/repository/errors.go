package repository

import "errors"

var (
	// ErrNotFound is returned when a requested table or snapshot doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrRateLimited is returned when the remote store rejects a call for quota reasons
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable is returned when the remote store can't be reached or authenticated
	ErrUnavailable = errors.New("remote store unavailable")

	// ErrRetriesExhausted is returned when every retry attempt was rate limited
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
