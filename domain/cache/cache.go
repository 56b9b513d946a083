// Package cache provides the domain interface for the keyspace read cache.
package cache

import (
	"context"
	"time"
)

// Cache defines the interface for the process-wide keyspace cache.
// Implementations must never return an expired value: liveness is
// re-checked on every read, not just by the background sweep.
type Cache interface {
	// Get retrieves a cached value by key.
	// Returns the value, whether a live entry was found, and any error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given key and options, resetting the
	// entry's age to zero.
	Set(ctx context.Context, key string, value []byte, opts SetOptions) error

	// Delete removes a cached entry by key. Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a live entry exists for the key.
	Exists(ctx context.Context, key string) (bool, error)

	// Clear removes all entries from the cache.
	Clear(ctx context.Context) error

	// InvalidatePattern removes every entry whose key matches the glob
	// pattern (`*` any run, `?` any single character, anchored full-string
	// match). Returns the number of removed entries. A pattern matching
	// zero entries is not an error; a malformed pattern is rejected with
	// ErrBadPattern before any entry is removed.
	InvalidatePattern(ctx context.Context, pattern string) (int, error)

	// Sweep removes every currently-expired entry and returns the number
	// removed. Invoked by a background timer to bound memory when entries
	// are written but never re-read.
	Sweep() int
}

// SetOptions configures how a value is stored in the cache.
type SetOptions struct {
	// TTL is the time-to-live for the cached entry.
	// Zero means no expiration; callers normally pass one of the
	// namespace defaults below.
	TTL time.Duration
}

// Per-namespace TTL defaults. Bulk key listings change less often
// relatively but are expensive to refetch, so they live longer than
// point reads, which should reflect near-real-time state.
const (
	// TTLKeyListing is the default TTL for bulk key-listing entries.
	TTLKeyListing = 30 * time.Second

	// TTLPointRead is the default TTL for single-value and metadata entries.
	TTLPointRead = 10 * time.Second

	// DefaultSweepInterval is the default interval for the background sweep.
	DefaultSweepInterval = 60 * time.Second
)

// Stats provides cache statistics.
type Stats struct {
	// Hits is the number of cache hits.
	Hits int64
	// Misses is the number of cache misses.
	Misses int64
	// Size is the current number of entries.
	Size int64
}

// StatsProvider is an optional interface for caches that support statistics.
type StatsProvider interface {
	// Stats returns current cache statistics.
	Stats() Stats
}
