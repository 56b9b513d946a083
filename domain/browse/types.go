// Package browse defines the domain types and the store-driver boundary for
// incremental keyspace browsing.
package browse

// ScanCursor is the opaque continuation token of a paged enumeration.
// A well-behaved driver returns Position == 0 only to signal completion,
// which is the loop-termination contract the enumerator depends on.
type ScanCursor struct {
	Position  uint64
	Exhausted bool
}

// InitialCursor returns the cursor that starts an enumeration.
func InitialCursor() ScanCursor {
	return ScanCursor{}
}

// IsInitial reports whether the cursor is at its initial (zero) position.
func (c ScanCursor) IsInitial() bool {
	return c.Position == 0
}

// KeyInfo describes a single store key's metadata.
type KeyInfo struct {
	Name string
	Type KeyType
	// TTL in seconds; -1 means no expiry, -2 means the key does not exist.
	TTL int64
	// Size is the element count for collection types, 0 for strings.
	Size int64
	// Encoding is the internal encoding reported by the store, if available.
	Encoding string
	// MemoryUsage is the approximate memory footprint in bytes, if available.
	MemoryUsage int64
}

// KeyType is the store-level type of a key.
type KeyType string

const (
	TypeString KeyType = "string"
	TypeList   KeyType = "list"
	TypeSet    KeyType = "set"
	TypeZSet   KeyType = "zset"
	TypeHash   KeyType = "hash"
	TypeStream KeyType = "stream"
	TypeNone   KeyType = "none"
)

// PointValue is a single key's value plus its type.
type PointValue struct {
	Value string
	Type  KeyType
}

// KeyPage is one page of a key scan.
type KeyPage struct {
	Keys   []string
	Cursor ScanCursor
}

// SequenceRange is one window of an ordered collection (list or sorted set).
type SequenceRange struct {
	Items      []string
	TotalCount int64
}

// ScoredMember is a sorted-set member with its score.
type ScoredMember struct {
	Member string
	Score  float64
}

// MemberPage is one page of an unordered set scan.
type MemberPage struct {
	Members []string
	Cursor  ScanCursor
}

// HashField is a single hash field with its value.
type HashField struct {
	Field string
	Value string
}

// FieldPage is one page of a hash scan. Fields are kept as an ordered
// slice rather than a map so accumulated pages preserve arrival order.
type FieldPage struct {
	Fields []HashField
	Cursor ScanCursor
}

// StreamEntry is a single stream entry.
type StreamEntry struct {
	ID     string
	Fields map[string]string
}

// ListSide selects which end of a list a push or pop addresses.
type ListSide string

const (
	SideLeft  ListSide = "left"
	SideRight ListSide = "right"
)

// StreamTrimStrategy selects how a stream is trimmed.
type StreamTrimStrategy string

const (
	TrimMaxLen StreamTrimStrategy = "MAXLEN"
	TrimMinID  StreamTrimStrategy = "MINID"
)
