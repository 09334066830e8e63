package domain

import "errors"

// Domain errors
var (
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrNoReport          = errors.New("no digest report available")
	ErrFetchFailed       = errors.New("fetching steam activity failed")
)
