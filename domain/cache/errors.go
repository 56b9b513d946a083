package cache

import "errors"

// Domain errors for cache operations.
var (
	// ErrInvalidKey is returned when a key is invalid (e.g., empty).
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrBadPattern is returned when a malformed glob is passed to
	// InvalidatePattern. The cache is left untouched.
	ErrBadPattern = errors.New("malformed glob pattern")
)
