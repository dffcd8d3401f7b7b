package cache

import "errors"

var (
	ErrInvalidKey = errors.New("cache key must not be empty")
	ErrNoTier     = errors.New("no cache tier accepted the write")

	// ErrTierUnavailable marks a tier that failed to initialize or respond.
	// The manager logs it and carries on without the tier.
	ErrTierUnavailable = errors.New("cache tier unavailable")
	ErrCorruptEntry    = errors.New("corrupt cache entry")
)
