package browse

import "context"

// Driver is the boundary to the authoritative store. Implementations
// execute bounded queries against one connection; they never cache and
// never invalidate, since the cache layer owns invalidation.
//
// All fetch methods propagate backend errors unchanged. Mutations report
// success or failure only.
type Driver interface {
	KeyReader
	CollectionReader
	Mutator
}

// KeyReader covers key discovery and point reads.
type KeyReader interface {
	// FetchAllKeys exhaustively enumerates keys matching the pattern via
	// bounded scan pages. It never issues an unbounded listing query.
	FetchAllKeys(ctx context.Context, pattern string) ([]string, error)

	// FetchKeyPage fetches one bounded scan page of keys matching the
	// pattern. An empty page with a non-exhausted cursor is a valid state.
	FetchKeyPage(ctx context.Context, pattern string, cursor ScanCursor, pageSize int64) (KeyPage, error)

	// FetchPointValue fetches a key's value rendered for display.
	FetchPointValue(ctx context.Context, key string) (PointValue, error)

	// FetchMetadata fetches a key's type, TTL, size, and memory footprint.
	FetchMetadata(ctx context.Context, key string) (KeyInfo, error)

	// KeyExists probes a single key for existence. Used by the bounded
	// numeric-probe fallback, which cannot discover such keys by prefix.
	KeyExists(ctx context.Context, key string) (bool, error)
}

// CollectionReader covers windowed access to one collection key.
type CollectionReader interface {
	// FetchSequenceRange fetches an offset window of an ordered collection
	// (list or sorted set) plus the collection's total count.
	FetchSequenceRange(ctx context.Context, key string, start, count int64) (SequenceRange, error)

	// FetchSetPage fetches one cursor page of an unordered set's members.
	FetchSetPage(ctx context.Context, key string, cursor ScanCursor, count int64) (MemberPage, error)

	// FetchHashPage fetches one cursor page of a hash's fields.
	FetchHashPage(ctx context.Context, key string, cursor ScanCursor, count int64) (FieldPage, error)

	// FetchStreamRange fetches stream entries between two IDs, bounded by
	// count when count > 0.
	FetchStreamRange(ctx context.Context, key, start, end string, count int64) ([]StreamEntry, error)
}

// Mutator covers every write operation the browsing layer issues. The
// cache layer is responsible for invalidation after each call, not the
// driver.
type Mutator interface {
	SetValue(ctx context.Context, key, value string) error
	DeleteKey(ctx context.Context, key string) error
	// DeleteKeys removes many keys in one round trip.
	DeleteKeys(ctx context.Context, keys []string) error
	// SetTTL applies an expiry in seconds; ttl <= 0 removes the expiry.
	SetTTL(ctx context.Context, key string, ttl int64) error

	HashSetField(ctx context.Context, key, field, value string) error
	HashDeleteField(ctx context.Context, key, field string) error

	ListPush(ctx context.Context, key, value string, side ListSide) error
	ListPop(ctx context.Context, key string, side ListSide) (string, bool, error)
	ListSetIndex(ctx context.Context, key string, index int64, value string) error
	ListRemove(ctx context.Context, key string, count int64, value string) error

	SetAddMember(ctx context.Context, key, member string) error
	SetRemoveMember(ctx context.Context, key, member string) error

	ZSetAddMember(ctx context.Context, key, member string, score float64) error
	ZSetRemoveMember(ctx context.Context, key, member string) error
	ZSetIncrementScore(ctx context.Context, key, member string, increment float64) (float64, error)

	StreamAddEntry(ctx context.Context, key string, fields map[string]string) (string, error)
	StreamDeleteEntry(ctx context.Context, key, entryID string) error
	StreamTrim(ctx context.Context, key string, strategy StreamTrimStrategy, threshold string, approximate bool) (int64, error)
}
