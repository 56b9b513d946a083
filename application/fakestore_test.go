package application_test

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"sync"

	"github.com/felixgeelhaar/keyscope/domain/browse"
)

// fakeDriver is an in-memory stand-in for the store driver. Paging is
// deterministic: the cursor position is the index of the next element
// in sorted order.
type fakeDriver struct {
	mu sync.Mutex

	strings map[string]string
	lists   map[string][]string
	sets    map[string][]string
	hashes  map[string][]browse.HashField
	zsets   map[string][]browse.ScoredMember

	pageSize int64 // overrides the requested page size when > 0

	allKeysCalls  int
	keyPageCalls  int
	valueCalls    int
	metadataCalls int
	rangeCalls    int
	setPageCalls  int
	hashPageCalls int
	deleteBatches [][]string

	fetchErr error

	// When set, collection page fetches signal fetchStarted and then
	// block until fetchRelease is closed.
	fetchStarted chan struct{}
	fetchRelease chan struct{}
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		strings: make(map[string]string),
		lists:   make(map[string][]string),
		sets:    make(map[string][]string),
		hashes:  make(map[string][]browse.HashField),
		zsets:   make(map[string][]browse.ScoredMember),
	}
}

var _ browse.Driver = (*fakeDriver)(nil)

func (d *fakeDriver) allKeys() []string {
	seen := make(map[string]struct{})
	for k := range d.strings {
		seen[k] = struct{}{}
	}
	for k := range d.lists {
		seen[k] = struct{}{}
	}
	for k := range d.sets {
		seen[k] = struct{}{}
	}
	for k := range d.hashes {
		seen[k] = struct{}{}
	}
	for k := range d.zsets {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d *fakeDriver) matching(pattern string) []string {
	var out []string
	for _, k := range d.allKeys() {
		if ok, _ := path.Match(pattern, k); ok {
			out = append(out, k)
		}
	}
	return out
}

func (d *fakeDriver) typeOf(key string) browse.KeyType {
	if _, ok := d.strings[key]; ok {
		return browse.TypeString
	}
	if _, ok := d.lists[key]; ok {
		return browse.TypeList
	}
	if _, ok := d.sets[key]; ok {
		return browse.TypeSet
	}
	if _, ok := d.hashes[key]; ok {
		return browse.TypeHash
	}
	if _, ok := d.zsets[key]; ok {
		return browse.TypeZSet
	}
	return browse.TypeNone
}

func pageBounds(total int, cursor browse.ScanCursor, count int64) (start, end int, next browse.ScanCursor) {
	start = int(cursor.Position)
	if start >= total {
		return total, total, browse.ScanCursor{Exhausted: true}
	}
	end = start + int(count)
	if end >= total {
		return start, total, browse.ScanCursor{Exhausted: true}
	}
	return start, end, browse.ScanCursor{Position: uint64(end)}
}

func (d *fakeDriver) blockIfConfigured() {
	d.mu.Lock()
	started, release := d.fetchStarted, d.fetchRelease
	d.mu.Unlock()
	if started != nil {
		started <- struct{}{}
		<-release
	}
}

func (d *fakeDriver) FetchAllKeys(ctx context.Context, pattern string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allKeysCalls++
	if d.fetchErr != nil {
		return nil, d.fetchErr
	}
	return d.matching(pattern), nil
}

func (d *fakeDriver) FetchKeyPage(ctx context.Context, pattern string, cursor browse.ScanCursor, pageSize int64) (browse.KeyPage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keyPageCalls++
	if d.fetchErr != nil {
		return browse.KeyPage{}, d.fetchErr
	}
	if d.pageSize > 0 {
		pageSize = d.pageSize
	}
	keys := d.matching(pattern)
	start, end, next := pageBounds(len(keys), cursor, pageSize)
	return browse.KeyPage{Keys: keys[start:end], Cursor: next}, nil
}

func (d *fakeDriver) FetchPointValue(ctx context.Context, key string) (browse.PointValue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.valueCalls++
	if d.fetchErr != nil {
		return browse.PointValue{}, d.fetchErr
	}
	switch d.typeOf(key) {
	case browse.TypeString:
		return browse.PointValue{Value: d.strings[key], Type: browse.TypeString}, nil
	case browse.TypeList:
		data, _ := json.Marshal(d.lists[key])
		return browse.PointValue{Value: string(data), Type: browse.TypeList}, nil
	default:
		return browse.PointValue{Type: d.typeOf(key)}, nil
	}
}

func (d *fakeDriver) FetchMetadata(ctx context.Context, key string) (browse.KeyInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metadataCalls++
	if d.fetchErr != nil {
		return browse.KeyInfo{}, d.fetchErr
	}
	info := browse.KeyInfo{Name: key, Type: d.typeOf(key), TTL: -1}
	switch info.Type {
	case browse.TypeList:
		info.Size = int64(len(d.lists[key]))
	case browse.TypeSet:
		info.Size = int64(len(d.sets[key]))
	case browse.TypeHash:
		info.Size = int64(len(d.hashes[key]))
	case browse.TypeZSet:
		info.Size = int64(len(d.zsets[key]))
	case browse.TypeNone:
		info.TTL = -2
	}
	return info, nil
}

func (d *fakeDriver) KeyExists(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fetchErr != nil {
		return false, d.fetchErr
	}
	return d.typeOf(key) != browse.TypeNone, nil
}

func (d *fakeDriver) FetchSequenceRange(ctx context.Context, key string, start, count int64) (browse.SequenceRange, error) {
	d.blockIfConfigured()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rangeCalls++
	if d.fetchErr != nil {
		return browse.SequenceRange{}, d.fetchErr
	}
	var items []string
	switch d.typeOf(key) {
	case browse.TypeList:
		items = d.lists[key]
	case browse.TypeZSet:
		for _, m := range d.zsets[key] {
			items = append(items, fmt.Sprintf("%s\t%g", m.Member, m.Score))
		}
	default:
		return browse.SequenceRange{}, browse.ErrUnsupportedType
	}
	total := int64(len(items))
	if start >= total {
		return browse.SequenceRange{TotalCount: total}, nil
	}
	end := start + count
	if end > total {
		end = total
	}
	window := append([]string(nil), items[start:end]...)
	return browse.SequenceRange{Items: window, TotalCount: total}, nil
}

func (d *fakeDriver) FetchSetPage(ctx context.Context, key string, cursor browse.ScanCursor, count int64) (browse.MemberPage, error) {
	d.blockIfConfigured()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setPageCalls++
	if d.fetchErr != nil {
		return browse.MemberPage{}, d.fetchErr
	}
	members := d.sets[key]
	start, end, next := pageBounds(len(members), cursor, count)
	return browse.MemberPage{Members: append([]string(nil), members[start:end]...), Cursor: next}, nil
}

func (d *fakeDriver) FetchHashPage(ctx context.Context, key string, cursor browse.ScanCursor, count int64) (browse.FieldPage, error) {
	d.blockIfConfigured()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hashPageCalls++
	if d.fetchErr != nil {
		return browse.FieldPage{}, d.fetchErr
	}
	fields := d.hashes[key]
	start, end, next := pageBounds(len(fields), cursor, count)
	return browse.FieldPage{Fields: append([]browse.HashField(nil), fields[start:end]...), Cursor: next}, nil
}

func (d *fakeDriver) FetchStreamRange(ctx context.Context, key, start, end string, count int64) ([]browse.StreamEntry, error) {
	return nil, nil
}

func (d *fakeDriver) SetValue(ctx context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.strings[key] = value
	return nil
}

func (d *fakeDriver) DeleteKey(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removeKey(key)
	return nil
}

func (d *fakeDriver) removeKey(key string) {
	delete(d.strings, key)
	delete(d.lists, key)
	delete(d.sets, key)
	delete(d.hashes, key)
	delete(d.zsets, key)
}

func (d *fakeDriver) DeleteKeys(ctx context.Context, keys []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleteBatches = append(d.deleteBatches, append([]string(nil), keys...))
	for _, k := range keys {
		d.removeKey(k)
	}
	return nil
}

func (d *fakeDriver) SetTTL(ctx context.Context, key string, ttl int64) error {
	return nil
}

func (d *fakeDriver) HashSetField(ctx context.Context, key, field, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, f := range d.hashes[key] {
		if f.Field == field {
			d.hashes[key][i].Value = value
			return nil
		}
	}
	d.hashes[key] = append(d.hashes[key], browse.HashField{Field: field, Value: value})
	return nil
}

func (d *fakeDriver) HashDeleteField(ctx context.Context, key, field string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	fields := d.hashes[key]
	for i, f := range fields {
		if f.Field == field {
			d.hashes[key] = append(fields[:i], fields[i+1:]...)
			return nil
		}
	}
	return nil
}

func (d *fakeDriver) ListPush(ctx context.Context, key, value string, side browse.ListSide) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if side == browse.SideLeft {
		d.lists[key] = append([]string{value}, d.lists[key]...)
	} else {
		d.lists[key] = append(d.lists[key], value)
	}
	return nil
}

func (d *fakeDriver) ListPop(ctx context.Context, key string, side browse.ListSide) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	items := d.lists[key]
	if len(items) == 0 {
		return "", false, nil
	}
	var value string
	if side == browse.SideLeft {
		value, d.lists[key] = items[0], items[1:]
	} else {
		value, d.lists[key] = items[len(items)-1], items[:len(items)-1]
	}
	if len(d.lists[key]) == 0 {
		delete(d.lists, key)
	}
	return value, true, nil
}

func (d *fakeDriver) ListSetIndex(ctx context.Context, key string, index int64, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	items := d.lists[key]
	if index < 0 || index >= int64(len(items)) {
		return fmt.Errorf("index out of range: %d", index)
	}
	items[index] = value
	return nil
}

func (d *fakeDriver) ListRemove(ctx context.Context, key string, count int64, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var kept []string
	for _, v := range d.lists[key] {
		if v != value {
			kept = append(kept, v)
		}
	}
	d.lists[key] = kept
	return nil
}

func (d *fakeDriver) SetAddMember(ctx context.Context, key, member string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, m := range d.sets[key] {
		if m == member {
			return nil
		}
	}
	d.sets[key] = append(d.sets[key], member)
	return nil
}

func (d *fakeDriver) SetRemoveMember(ctx context.Context, key, member string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	members := d.sets[key]
	for i, m := range members {
		if m == member {
			d.sets[key] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return nil
}

func (d *fakeDriver) ZSetAddMember(ctx context.Context, key, member string, score float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, m := range d.zsets[key] {
		if m.Member == member {
			d.zsets[key][i].Score = score
			return nil
		}
	}
	d.zsets[key] = append(d.zsets[key], browse.ScoredMember{Member: member, Score: score})
	return nil
}

func (d *fakeDriver) ZSetRemoveMember(ctx context.Context, key, member string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	members := d.zsets[key]
	for i, m := range members {
		if m.Member == member {
			d.zsets[key] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return nil
}

func (d *fakeDriver) ZSetIncrementScore(ctx context.Context, key, member string, increment float64) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, m := range d.zsets[key] {
		if m.Member == member {
			d.zsets[key][i].Score += increment
			return d.zsets[key][i].Score, nil
		}
	}
	d.zsets[key] = append(d.zsets[key], browse.ScoredMember{Member: member, Score: increment})
	return increment, nil
}

func (d *fakeDriver) StreamAddEntry(ctx context.Context, key string, fields map[string]string) (string, error) {
	return "1-0", nil
}

func (d *fakeDriver) StreamDeleteEntry(ctx context.Context, key, entryID string) error {
	return nil
}

func (d *fakeDriver) StreamTrim(ctx context.Context, key string, strategy browse.StreamTrimStrategy, threshold string, approximate bool) (int64, error) {
	return 0, nil
}

func (d *fakeDriver) setFetchErr(err error) {
	d.mu.Lock()
	d.fetchErr = err
	d.mu.Unlock()
}

func (d *fakeDriver) counts() (allKeys, value, metadata, rangeCalls int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allKeysCalls, d.valueCalls, d.metadataCalls, d.rangeCalls
}
