package adapter

import "errors"

var (
	// ErrLocalStoreRequired is returned when a local store is not provided.
	ErrLocalStoreRequired = errors.New("local store required")

	// ErrInvalidMaxAttempts is returned when a retry policy allows no attempts.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidTimeout is returned for negative remote timeouts.
	ErrInvalidTimeout = errors.New("remote timeout cannot be negative")

	// ErrNotRemoteActive is returned by operations that need an active remote.
	ErrNotRemoteActive = errors.New("remote store is not active")
)
