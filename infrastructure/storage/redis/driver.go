package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/keyscope/domain/browse"
)

// Driver is the Redis-backed implementation of browse.Driver. It executes
// bounded queries only; it never caches and never invalidates.
type Driver struct {
	client          *redis.Client
	scanPageSize    int64
	deleteBatchSize int
}

// NewDriver creates a driver and verifies the connection with a ping.
func NewDriver(cfg Config, opts ...ConfigOption) (*Driver, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(cfg.options())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return newDriver(client, cfg), nil
}

// NewDriverFromClient creates a driver from an existing Redis client.
func NewDriverFromClient(client *redis.Client, cfg Config) *Driver {
	return newDriver(client, cfg)
}

func newDriver(client *redis.Client, cfg Config) *Driver {
	pageSize := cfg.ScanPageSize
	if pageSize <= 0 {
		pageSize = DefaultConfig().ScanPageSize
	}
	batch := cfg.DeleteBatchSize
	if batch <= 0 {
		batch = DefaultConfig().DeleteBatchSize
	}
	return &Driver{
		client:          client,
		scanPageSize:    pageSize,
		deleteBatchSize: batch,
	}
}

// Close releases the underlying connection pool.
func (d *Driver) Close() error {
	return d.client.Close()
}

// Ping checks the connection.
func (d *Driver) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

// Client returns the underlying Redis client for advanced operations.
func (d *Driver) Client() *redis.Client {
	return d.client
}

// FetchAllKeys enumerates every key matching the pattern via SCAN pages.
// KEYS is never issued; it can block the server on large datasets.
func (d *Driver) FetchAllKeys(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := d.client.Scan(ctx, cursor, pattern, d.scanPageSize).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// FetchKeyPage fetches one bounded SCAN page.
func (d *Driver) FetchKeyPage(ctx context.Context, pattern string, cursor browse.ScanCursor, pageSize int64) (browse.KeyPage, error) {
	if pageSize <= 0 {
		pageSize = d.scanPageSize
	}
	keys, next, err := d.client.Scan(ctx, cursor.Position, pattern, pageSize).Result()
	if err != nil {
		return browse.KeyPage{}, err
	}
	return browse.KeyPage{
		Keys:   keys,
		Cursor: browse.ScanCursor{Position: next, Exhausted: next == 0},
	}, nil
}

// FetchPointValue fetches a key's value rendered for display. Collection
// values are rendered as indented JSON, mirroring how they are shown.
func (d *Driver) FetchPointValue(ctx context.Context, key string) (browse.PointValue, error) {
	keyType, err := d.keyType(ctx, key)
	if err != nil {
		return browse.PointValue{}, err
	}

	var rendered string
	switch keyType {
	case browse.TypeString:
		rendered, err = d.client.Get(ctx, key).Result()
	case browse.TypeList:
		var items []string
		items, err = d.client.LRange(ctx, key, 0, -1).Result()
		if err == nil {
			rendered, err = renderJSON(items)
		}
	case browse.TypeSet:
		var members []string
		members, err = d.client.SMembers(ctx, key).Result()
		if err == nil {
			rendered, err = renderJSON(members)
		}
	case browse.TypeZSet:
		var zs []redis.Z
		zs, err = d.client.ZRangeWithScores(ctx, key, 0, -1).Result()
		if err == nil {
			scored := make([]browse.ScoredMember, len(zs))
			for i, z := range zs {
				scored[i] = browse.ScoredMember{Member: memberString(z.Member), Score: z.Score}
			}
			rendered, err = renderJSON(scored)
		}
	case browse.TypeHash:
		var fields map[string]string
		fields, err = d.client.HGetAll(ctx, key).Result()
		if err == nil {
			rendered, err = renderJSON(fields)
		}
	case browse.TypeStream:
		var entries []browse.StreamEntry
		entries, err = d.FetchStreamRange(ctx, key, "-", "+", 0)
		if err == nil {
			rendered, err = renderJSON(entries)
		}
	default:
		return browse.PointValue{}, browse.ErrUnsupportedType
	}
	if err != nil {
		return browse.PointValue{}, err
	}

	return browse.PointValue{Value: rendered, Type: keyType}, nil
}

// FetchMetadata fetches a key's type, TTL, element count, encoding, and
// approximate memory footprint.
func (d *Driver) FetchMetadata(ctx context.Context, key string) (browse.KeyInfo, error) {
	keyType, err := d.keyType(ctx, key)
	if err != nil {
		return browse.KeyInfo{}, err
	}

	ttl, err := d.ttlSeconds(ctx, key)
	if err != nil {
		return browse.KeyInfo{}, err
	}

	info := browse.KeyInfo{
		Name: key,
		Type: keyType,
		TTL:  ttl,
	}

	switch keyType {
	case browse.TypeList:
		info.Size, err = d.client.LLen(ctx, key).Result()
	case browse.TypeSet:
		info.Size, err = d.client.SCard(ctx, key).Result()
	case browse.TypeZSet:
		info.Size, err = d.client.ZCard(ctx, key).Result()
	case browse.TypeHash:
		info.Size, err = d.client.HLen(ctx, key).Result()
	case browse.TypeStream:
		info.Size, err = d.client.XLen(ctx, key).Result()
	}
	if err != nil {
		return browse.KeyInfo{}, err
	}

	// MEMORY USAGE and DEBUG OBJECT are advisory; older servers or
	// restricted deployments refuse them, so their errors are ignored.
	if usage, memErr := d.client.MemoryUsage(ctx, key).Result(); memErr == nil {
		info.MemoryUsage = usage
	}
	if debug, dbgErr := d.client.DebugObject(ctx, key).Result(); dbgErr == nil {
		info.Encoding = parseDebugField(debug, "encoding:")
		if info.MemoryUsage == 0 {
			if n, parseErr := strconv.ParseInt(parseDebugField(debug, "serializedlength:"), 10, 64); parseErr == nil {
				info.MemoryUsage = n
			}
		}
	}

	return info, nil
}

// KeyExists probes a single key for existence.
func (d *Driver) KeyExists(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FetchSequenceRange fetches an offset window of a list or sorted set
// plus the collection's total count.
func (d *Driver) FetchSequenceRange(ctx context.Context, key string, start, count int64) (browse.SequenceRange, error) {
	keyType, err := d.keyType(ctx, key)
	if err != nil {
		return browse.SequenceRange{}, err
	}

	stop := start + count - 1

	switch keyType {
	case browse.TypeList:
		total, err := d.client.LLen(ctx, key).Result()
		if err != nil {
			return browse.SequenceRange{}, err
		}
		items, err := d.client.LRange(ctx, key, start, stop).Result()
		if err != nil {
			return browse.SequenceRange{}, err
		}
		return browse.SequenceRange{Items: items, TotalCount: total}, nil

	case browse.TypeZSet:
		total, err := d.client.ZCard(ctx, key).Result()
		if err != nil {
			return browse.SequenceRange{}, err
		}
		zs, err := d.client.ZRangeWithScores(ctx, key, start, stop).Result()
		if err != nil {
			return browse.SequenceRange{}, err
		}
		items := make([]string, len(zs))
		for i, z := range zs {
			items[i] = memberString(z.Member) + "\t" + strconv.FormatFloat(z.Score, 'g', -1, 64)
		}
		return browse.SequenceRange{Items: items, TotalCount: total}, nil

	default:
		return browse.SequenceRange{}, browse.ErrUnsupportedType
	}
}

// FetchSetPage fetches one SSCAN page of a set's members.
func (d *Driver) FetchSetPage(ctx context.Context, key string, cursor browse.ScanCursor, count int64) (browse.MemberPage, error) {
	members, next, err := d.client.SScan(ctx, key, cursor.Position, "", count).Result()
	if err != nil {
		return browse.MemberPage{}, err
	}
	return browse.MemberPage{
		Members: members,
		Cursor:  browse.ScanCursor{Position: next, Exhausted: next == 0},
	}, nil
}

// FetchHashPage fetches one HSCAN page of a hash's fields.
func (d *Driver) FetchHashPage(ctx context.Context, key string, cursor browse.ScanCursor, count int64) (browse.FieldPage, error) {
	flat, next, err := d.client.HScan(ctx, key, cursor.Position, "", count).Result()
	if err != nil {
		return browse.FieldPage{}, err
	}

	// HSCAN yields a flattened field, value, field, value sequence.
	fields := make([]browse.HashField, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		fields = append(fields, browse.HashField{Field: flat[i], Value: flat[i+1]})
	}

	return browse.FieldPage{
		Fields: fields,
		Cursor: browse.ScanCursor{Position: next, Exhausted: next == 0},
	}, nil
}

// FetchStreamRange fetches stream entries between two IDs.
func (d *Driver) FetchStreamRange(ctx context.Context, key, start, end string, count int64) ([]browse.StreamEntry, error) {
	var (
		msgs []redis.XMessage
		err  error
	)
	if count > 0 {
		msgs, err = d.client.XRangeN(ctx, key, start, end, count).Result()
	} else {
		msgs, err = d.client.XRange(ctx, key, start, end).Result()
	}
	if err != nil {
		return nil, err
	}

	entries := make([]browse.StreamEntry, len(msgs))
	for i, msg := range msgs {
		fields := make(map[string]string, len(msg.Values))
		for k, v := range msg.Values {
			fields[k] = memberString(v)
		}
		entries[i] = browse.StreamEntry{ID: msg.ID, Fields: fields}
	}
	return entries, nil
}

// SetValue writes a string value.
func (d *Driver) SetValue(ctx context.Context, key, value string) error {
	return d.client.Set(ctx, key, value, 0).Err()
}

// DeleteKey removes one key.
func (d *Driver) DeleteKey(ctx context.Context, key string) error {
	return d.client.Del(ctx, key).Err()
}

// DeleteKeys removes many keys, batching DEL round trips.
func (d *Driver) DeleteKeys(ctx context.Context, keys []string) error {
	for len(keys) > 0 {
		n := d.deleteBatchSize
		if n > len(keys) {
			n = len(keys)
		}
		if err := d.client.Del(ctx, keys[:n]...).Err(); err != nil {
			return err
		}
		keys = keys[n:]
	}
	return nil
}

// SetTTL applies an expiry in seconds; ttl <= 0 removes the expiry.
func (d *Driver) SetTTL(ctx context.Context, key string, ttl int64) error {
	if ttl > 0 {
		return d.client.Expire(ctx, key, time.Duration(ttl)*time.Second).Err()
	}
	return d.client.Persist(ctx, key).Err()
}

// HashSetField writes one hash field.
func (d *Driver) HashSetField(ctx context.Context, key, field, value string) error {
	return d.client.HSet(ctx, key, field, value).Err()
}

// HashDeleteField removes one hash field.
func (d *Driver) HashDeleteField(ctx context.Context, key, field string) error {
	return d.client.HDel(ctx, key, field).Err()
}

// ListPush appends a value to the chosen end of a list.
func (d *Driver) ListPush(ctx context.Context, key, value string, side browse.ListSide) error {
	switch side {
	case browse.SideLeft:
		return d.client.LPush(ctx, key, value).Err()
	case browse.SideRight:
		return d.client.RPush(ctx, key, value).Err()
	default:
		return browse.ErrUnsupportedType
	}
}

// ListPop removes and returns a value from the chosen end of a list.
func (d *Driver) ListPop(ctx context.Context, key string, side browse.ListSide) (string, bool, error) {
	var cmd *redis.StringCmd
	switch side {
	case browse.SideLeft:
		cmd = d.client.LPop(ctx, key)
	case browse.SideRight:
		cmd = d.client.RPop(ctx, key)
	default:
		return "", false, browse.ErrUnsupportedType
	}

	value, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// ListSetIndex overwrites the element at an absolute index.
func (d *Driver) ListSetIndex(ctx context.Context, key string, index int64, value string) error {
	return d.client.LSet(ctx, key, index, value).Err()
}

// ListRemove removes occurrences of a value, honoring LREM count semantics.
func (d *Driver) ListRemove(ctx context.Context, key string, count int64, value string) error {
	return d.client.LRem(ctx, key, count, value).Err()
}

// SetAddMember adds a member to a set.
func (d *Driver) SetAddMember(ctx context.Context, key, member string) error {
	return d.client.SAdd(ctx, key, member).Err()
}

// SetRemoveMember removes a member from a set.
func (d *Driver) SetRemoveMember(ctx context.Context, key, member string) error {
	return d.client.SRem(ctx, key, member).Err()
}

// ZSetAddMember adds a member with a score to a sorted set.
func (d *Driver) ZSetAddMember(ctx context.Context, key, member string, score float64) error {
	return d.client.ZAdd(ctx, key, redis.Z{Member: member, Score: score}).Err()
}

// ZSetRemoveMember removes a member from a sorted set.
func (d *Driver) ZSetRemoveMember(ctx context.Context, key, member string) error {
	return d.client.ZRem(ctx, key, member).Err()
}

// ZSetIncrementScore adjusts a member's score and returns the new score.
func (d *Driver) ZSetIncrementScore(ctx context.Context, key, member string, increment float64) (float64, error) {
	return d.client.ZIncrBy(ctx, key, increment, member).Result()
}

// StreamAddEntry appends an entry with an auto-generated ID.
func (d *Driver) StreamAddEntry(ctx context.Context, key string, fields map[string]string) (string, error) {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	return d.client.XAdd(ctx, &redis.XAddArgs{Stream: key, Values: values}).Result()
}

// StreamDeleteEntry removes one stream entry by ID.
func (d *Driver) StreamDeleteEntry(ctx context.Context, key, entryID string) error {
	return d.client.XDel(ctx, key, entryID).Err()
}

// StreamTrim trims a stream by MAXLEN or MINID and returns the number of
// removed entries.
func (d *Driver) StreamTrim(ctx context.Context, key string, strategy browse.StreamTrimStrategy, threshold string, approximate bool) (int64, error) {
	switch strategy {
	case browse.TrimMaxLen:
		maxLen, err := strconv.ParseInt(threshold, 10, 64)
		if err != nil {
			return 0, err
		}
		if approximate {
			return d.client.XTrimMaxLenApprox(ctx, key, maxLen, 0).Result()
		}
		return d.client.XTrimMaxLen(ctx, key, maxLen).Result()
	case browse.TrimMinID:
		if approximate {
			return d.client.XTrimMinIDApprox(ctx, key, threshold, 0).Result()
		}
		return d.client.XTrimMinID(ctx, key, threshold).Result()
	default:
		return 0, browse.ErrUnsupportedType
	}
}

// keyType resolves the store-level type of a key.
func (d *Driver) keyType(ctx context.Context, key string) (browse.KeyType, error) {
	t, err := d.client.Type(ctx, key).Result()
	if err != nil {
		return browse.TypeNone, err
	}
	return browse.KeyType(t), nil
}

// ttlSeconds converts go-redis TTL results to seconds, preserving the
// -1 (no expiry) and -2 (missing key) sentinels.
func (d *Driver) ttlSeconds(ctx context.Context, key string) (int64, error) {
	ttl, err := d.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return int64(ttl), nil
	}
	return int64(ttl / time.Second), nil
}

// parseDebugField extracts a "name:value" token from DEBUG OBJECT output.
func parseDebugField(debug, prefix string) string {
	for _, token := range strings.Fields(debug) {
		if strings.HasPrefix(token, prefix) {
			return strings.TrimPrefix(token, prefix)
		}
	}
	return ""
}

// renderJSON renders a collection value as indented JSON.
func renderJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// memberString normalizes go-redis interface values to strings.
func memberString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return ""
	}
}

// Ensure Driver implements the full store-driver boundary.
var _ browse.Driver = (*Driver)(nil)
