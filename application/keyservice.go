package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/keyscope/domain/browse"
	"github.com/felixgeelhaar/keyscope/domain/cache"
	"github.com/felixgeelhaar/keyscope/infrastructure/logging"
	"github.com/felixgeelhaar/keyscope/infrastructure/telemetry"
)

// DefaultCollectionPageSize is the window size for collection accessors.
const DefaultCollectionPageSize = 100

// KeyService is the read-through, write-invalidated facade over one
// connection's keyspace. Reads are served from the cache when a live
// entry exists; every mutation deletes the mutated key's point entries,
// and mutations that can change which keys exist also sweep the listing
// namespace by pattern.
//
// A failed fetch never clears previously cached state: stale data plus
// an error beats no data.
type KeyService struct {
	driver  browse.Driver
	cache   cache.Cache
	scanner *Scanner
	metrics telemetry.Metrics
	connID  string

	listingTTL time.Duration
	pointTTL   time.Duration
	pageSize   int64
}

// KeyServiceOption configures a KeyService.
type KeyServiceOption func(*KeyService)

// WithListingTTL overrides the key-listing cache TTL.
func WithListingTTL(ttl time.Duration) KeyServiceOption {
	return func(s *KeyService) {
		if ttl > 0 {
			s.listingTTL = ttl
		}
	}
}

// WithPointReadTTL overrides the point-read cache TTL.
func WithPointReadTTL(ttl time.Duration) KeyServiceOption {
	return func(s *KeyService) {
		if ttl > 0 {
			s.pointTTL = ttl
		}
	}
}

// WithCollectionPageSize overrides the accessor window size.
func WithCollectionPageSize(size int64) KeyServiceOption {
	return func(s *KeyService) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) KeyServiceOption {
	return func(s *KeyService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewKeyService creates a key service for one connection.
func NewKeyService(connID string, driver browse.Driver, store cache.Cache, scanner *Scanner, opts ...KeyServiceOption) *KeyService {
	s := &KeyService{
		driver:     driver,
		cache:      store,
		scanner:    scanner,
		metrics:    &telemetry.NoopMetricsProvider{},
		connID:     connID,
		listingTTL: cache.TTLKeyListing,
		pointTTL:   cache.TTLPointRead,
		pageSize:   DefaultCollectionPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConnID returns the connection this service browses.
func (s *KeyService) ConnID() string {
	return s.connID
}

// SearchKeys returns the sorted keys matching the pattern, served from
// the listing cache when a live entry exists.
func (s *KeyService) SearchKeys(ctx context.Context, pattern string) ([]string, error) {
	cacheKey := cache.ListingKey(s.connID, pattern)

	var cached []string
	if s.readCached(ctx, cacheKey, cache.NamespaceKeys, &cached) {
		return cached, nil
	}

	keys, err := s.driver.FetchAllKeys(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", pattern, err)
	}
	sort.Strings(keys)

	s.writeCached(ctx, cacheKey, keys, s.listingTTL)
	return keys, nil
}

// ScanMatching returns the deduplicated union of multiple independent
// pattern scans plus the numeric probe, cached as one listing entry.
func (s *KeyService) ScanMatching(ctx context.Context, patterns []string) ([]string, error) {
	sorted := append([]string(nil), patterns...)
	sort.Strings(sorted)
	// JSON-encode the pattern list so distinct sets can never collide on
	// one cache entry, whatever characters the patterns contain.
	encoded, err := json.Marshal(sorted)
	if err != nil {
		return nil, fmt.Errorf("encode patterns: %w", err)
	}
	cacheKey := cache.ListingKey(s.connID, string(encoded))

	var cached []string
	if s.readCached(ctx, cacheKey, cache.NamespaceKeys, &cached) {
		return cached, nil
	}

	keys, err := s.scanner.ScanAll(ctx, sorted)
	if err != nil {
		return nil, err
	}

	s.writeCached(ctx, cacheKey, keys, s.listingTTL)
	return keys, nil
}

// KeyInfo returns a key's metadata, served from the point cache when a
// live entry exists.
func (s *KeyService) KeyInfo(ctx context.Context, key string) (browse.KeyInfo, error) {
	cacheKey := cache.KeyInfoKey(s.connID, key)

	var cached browse.KeyInfo
	if s.readCached(ctx, cacheKey, cache.NamespaceKeyInfo, &cached) {
		return cached, nil
	}

	info, err := s.driver.FetchMetadata(ctx, key)
	if err != nil {
		return browse.KeyInfo{}, fmt.Errorf("metadata %q: %w", key, err)
	}

	s.writeCached(ctx, cacheKey, info, s.pointTTL)
	return info, nil
}

// Value returns a key's rendered value, served from the point cache
// when a live entry exists.
func (s *KeyService) Value(ctx context.Context, key string) (browse.PointValue, error) {
	cacheKey := cache.ValueKey(s.connID, key)

	var cached browse.PointValue
	if s.readCached(ctx, cacheKey, cache.NamespaceValue, &cached) {
		return cached, nil
	}

	value, err := s.driver.FetchPointValue(ctx, key)
	if err != nil {
		return browse.PointValue{}, fmt.Errorf("value %q: %w", key, err)
	}

	s.writeCached(ctx, cacheKey, value, s.pointTTL)
	return value, nil
}

// SetValue writes a string value. The write may create the key.
func (s *KeyService) SetValue(ctx context.Context, key, value string) error {
	if err := s.driver.SetValue(ctx, key, value); err != nil {
		return err
	}
	s.invalidateKey(ctx, key)
	s.invalidateListings(ctx)
	return nil
}

// DeleteKey removes a key.
func (s *KeyService) DeleteKey(ctx context.Context, key string) error {
	if err := s.driver.DeleteKey(ctx, key); err != nil {
		return err
	}
	s.invalidateKey(ctx, key)
	s.invalidateListings(ctx)
	return nil
}

// SetTTL applies or removes a key's expiry.
func (s *KeyService) SetTTL(ctx context.Context, key string, ttl int64) error {
	if err := s.driver.SetTTL(ctx, key, ttl); err != nil {
		return err
	}
	s.invalidateKey(ctx, key)
	return nil
}

// DeleteMatching scans the patterns, bulk-deletes every match, and
// drops all cached state the deletion could have made stale.
func (s *KeyService) DeleteMatching(ctx context.Context, patterns []string) (int, error) {
	keys, err := s.scanner.ScanPatterns(ctx, patterns)
	if err != nil {
		return 0, err
	}
	removed, err := s.scanner.DeleteKeys(ctx, keys)
	for _, key := range keys[:removed] {
		s.invalidateKey(ctx, key)
	}
	if removed > 0 {
		s.invalidateListings(ctx)
	}
	return removed, err
}

// OpenCollection inspects the key's type and returns the matching
// accessor with its first window loaded. Ordered collections page by
// offset; unordered collections accumulate by cursor.
func (s *KeyService) OpenCollection(ctx context.Context, key string) (Accessor, error) {
	info, err := s.KeyInfo(ctx, key)
	if err != nil {
		return nil, err
	}

	var acc Accessor
	switch info.Type {
	case browse.TypeList, browse.TypeZSet:
		acc = newOffsetAccessor(s, key, info.Type, s.pageSize)
	case browse.TypeSet, browse.TypeHash:
		acc = newCursorAccessor(s, key, info.Type, s.pageSize)
	default:
		return nil, fmt.Errorf("%w: %s is %s", browse.ErrUnsupportedType, key, info.Type)
	}

	if err := acc.Reset(ctx); err != nil {
		return nil, err
	}
	logging.Debug().
		Add(logging.ConnID(s.connID)).
		Add(logging.StoreKey(key)).
		Add(logging.Session(acc.ID())).
		Msg("collection opened")
	return acc, nil
}

// StreamRange fetches stream entries between two IDs.
func (s *KeyService) StreamRange(ctx context.Context, key, start, end string, count int64) ([]browse.StreamEntry, error) {
	return s.driver.FetchStreamRange(ctx, key, start, end, count)
}

// StreamAdd appends a stream entry and returns its ID.
func (s *KeyService) StreamAdd(ctx context.Context, key string, fields map[string]string) (string, error) {
	id, err := s.driver.StreamAddEntry(ctx, key, fields)
	if err != nil {
		return "", err
	}
	s.invalidateKey(ctx, key)
	s.invalidateListings(ctx)
	return id, nil
}

// StreamDelete removes a stream entry by ID.
func (s *KeyService) StreamDelete(ctx context.Context, key, entryID string) error {
	if err := s.driver.StreamDeleteEntry(ctx, key, entryID); err != nil {
		return err
	}
	s.invalidateKey(ctx, key)
	return nil
}

// StreamTrim trims a stream and returns the number of entries removed.
func (s *KeyService) StreamTrim(ctx context.Context, key string, strategy browse.StreamTrimStrategy, threshold string, approximate bool) (int64, error) {
	removed, err := s.driver.StreamTrim(ctx, key, strategy, threshold, approximate)
	if err != nil {
		return 0, err
	}
	s.invalidateKey(ctx, key)
	return removed, nil
}

// readCached attempts a cache hit, decoding into out. Decode failures
// count as misses; the corrupt entry is dropped.
func (s *KeyService) readCached(ctx context.Context, cacheKey string, ns cache.Namespace, out any) bool {
	data, ok, err := s.cache.Get(ctx, cacheKey)
	if err != nil || !ok {
		s.metrics.RecordCacheMiss(ctx, string(ns))
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		_ = s.cache.Delete(ctx, cacheKey)
		s.metrics.RecordCacheMiss(ctx, string(ns))
		return false
	}
	s.metrics.RecordCacheHit(ctx, string(ns))
	logging.Trace().Add(logging.CacheKey(cacheKey)).Msg("cache hit")
	return true
}

// writeCached stores a fetched result. Encoding failures are swallowed;
// caching is an optimization, never a correctness requirement.
func (s *KeyService) writeCached(ctx context.Context, cacheKey string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, cacheKey, data, cache.SetOptions{TTL: ttl})
}

// invalidateKey drops the point-value and metadata entries for one
// store key.
func (s *KeyService) invalidateKey(ctx context.Context, key string) {
	_ = s.cache.Delete(ctx, cache.ValueKey(s.connID, key))
	_ = s.cache.Delete(ctx, cache.KeyInfoKey(s.connID, key))
	s.metrics.RecordInvalidation(ctx, 2)
}

// invalidateListings drops every cached key listing for the connection.
// Called after any mutation that can change which keys exist.
func (s *KeyService) invalidateListings(ctx context.Context) {
	removed, err := s.cache.InvalidatePattern(ctx, cache.ListingPattern(s.connID))
	if err != nil {
		logging.Warn().
			Add(logging.ConnID(s.connID)).
			Add(logging.ErrorField(err)).
			Msg("listing invalidation failed")
		return
	}
	if removed > 0 {
		s.metrics.RecordInvalidation(ctx, removed)
		logging.Debug().
			Add(logging.ConnID(s.connID)).
			Add(logging.Removed(removed)).
			Msg("listings invalidated")
	}
}
