package cache

import "errors"

// Sentinel errors for caching operations.
var (
	// ErrCacheMiss is returned when an item is required but not cached.
	ErrCacheMiss = errors.New("cache miss")

	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("cache closed")
)
