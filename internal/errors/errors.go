package errors

import (
	"errors"
)

// Common error types
var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrMalformedEvent = errors.New("malformed event")
	ErrQueueFull      = errors.New("queue full")
)
