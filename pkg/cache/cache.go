// Package cache stores fetched pages between runs and across processes.
//
// [Cache] is a byte-oriented key/value store with per-entry TTL. Backends:
//   - [NullCache]: stores nothing; the default when caching is disabled
//   - [MemoryCache]: process-local, used by tests and the server
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: shared cache for multi-instance servers
//
// Keys come from a [Keyer] so that every page fetched from the same source
// with the same cursor and page size maps to one entry:
//
//	k := cache.NewDefaultKeyer()
//	key := k.PageKey("sqlite:items.db", cursor, 50)
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store with optional expiration.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
