// Package memory provides the in-process implementation of the keyspace
// cache.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/keyscope/domain/cache"
	"github.com/felixgeelhaar/keyscope/infrastructure/logging"
)

// cacheEntry holds a cached value with its expiry.
type cacheEntry struct {
	value     []byte
	writtenAt time.Time
	ttl       time.Duration
}

// isLive reports whether the entry is still within its TTL. Entries with
// zero TTL never expire.
func (e *cacheEntry) isLive(now time.Time) bool {
	if e.ttl == 0 {
		return true
	}
	return now.Sub(e.writtenAt) <= e.ttl
}

// Cache is the in-process TTL cache. Liveness is re-checked on every
// read; the background sweep only bounds memory for entries that are
// written and never re-read.
type Cache struct {
	entries map[string]*cacheEntry
	mu      sync.RWMutex
	hits    int64
	misses  int64
}

// NewCache creates a new in-memory cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
	}
}

// Get retrieves a value from the cache. An expired entry is deleted and
// reported as absent; a stale value is never returned.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false, nil
	}

	if !entry.isLive(time.Now()) {
		delete(c.entries, key)
		c.misses++
		return nil, false, nil
	}

	c.hits++

	// Return a copy to prevent mutation
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true, nil
}

// Set stores a value, overwriting any previous entry and resetting its
// age to zero. Always succeeds in-process.
func (c *Cache) Set(ctx context.Context, key string, value []byte, opts cache.SetOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if key == "" {
		return cache.ErrInvalidKey
	}

	// Store a copy to prevent external mutation
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry{
		value:     valueCopy,
		writtenAt: time.Now(),
		ttl:       opts.TTL,
	}
	return nil
}

// Delete removes one entry. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Exists reports whether a live entry exists for the key. Defined in
// terms of the same liveness check as Get, including lazy eviction.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if !entry.isLive(time.Now()) {
		delete(c.entries, key)
		return false, nil
	}
	return true, nil
}

// Clear removes all entries from the cache.
func (c *Cache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	return nil
}

// InvalidatePattern removes every entry whose key matches the glob. A
// malformed pattern is rejected before any entry is removed.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	re, err := compileGlob(pattern)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for key := range c.entries {
		if re.MatchString(key) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Sweep removes every currently-expired entry and returns the number
// removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var removed int
	for key, entry := range c.entries {
		if !entry.isLive(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on a fixed interval until the context is
// cancelled. Constructed alongside the cache at startup and torn down
// with it; the pass is bounded and never starves foreground reads.
func (c *Cache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = cache.DefaultSweepInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := c.Sweep(); removed > 0 {
					logging.Debug().
						Add(logging.Component("cache")).
						Add(logging.Removed(removed)).
						Msg("sweep evicted expired entries")
				}
			}
		}
	}()
}

// Stats returns cache statistics.
func (c *Cache) Stats() cache.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return cache.Stats{
		Hits:   c.hits,
		Misses: c.misses,
		Size:   int64(len(c.entries)),
	}
}

// Size returns the current number of entries.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure Cache implements cache.Cache and cache.StatsProvider
var (
	_ cache.Cache         = (*Cache)(nil)
	_ cache.StatsProvider = (*Cache)(nil)
)
