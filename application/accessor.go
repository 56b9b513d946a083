package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/keyscope/domain/browse"
)

// Element is one materialized collection element. Field is set for hash
// fields, Score for sorted-set members rendered by the driver.
type Element struct {
	Field string
	Value string
}

// Window is a snapshot of an accessor's materialized elements.
type Window struct {
	Elements []Element
	// Start is the absolute index of the first element. Always 0 in
	// cursor mode, where the window grows from the front.
	Start int64
	// TotalCount is the collection's total element count, or -1 when it
	// is not yet known (cursor mode before exhaustion).
	TotalCount int64
	// HasMore reports whether another LoadMore can extend or advance
	// the window.
	HasMore bool
}

// Accessor provides paged access to one collection key. Offset-mode
// accessors (lists, sorted sets) replace the window on each load;
// cursor-mode accessors (sets, hashes) accumulate until the server
// cursor is exhausted.
//
// Accessors are not re-entrant: a load issued while another is in
// flight fails with ErrFetchInFlight instead of queueing.
type Accessor interface {
	// ID is the accessor's session handle.
	ID() string
	Key() string
	Kind() browse.KeyType
	Window() Window
	// LoadMore fetches the next page.
	LoadMore(ctx context.Context) error
	// Reset discards the materialized window and loads the first page.
	Reset(ctx context.Context) error
}

// fetchGate rejects overlapping fetches for one accessor.
type fetchGate struct {
	mu       sync.Mutex
	inFlight bool
}

func (g *fetchGate) enter() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return browse.ErrFetchInFlight
	}
	g.inFlight = true
	return nil
}

func (g *fetchGate) exit() {
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}

// OffsetAccessor pages through an ordered collection by absolute offset.
// Each load replaces the window; the window never grows past one page.
type OffsetAccessor struct {
	id       string
	key      string
	kind     browse.KeyType
	svc      *KeyService
	pageSize int64

	gate fetchGate

	mu     sync.RWMutex
	window Window
}

func newOffsetAccessor(svc *KeyService, key string, kind browse.KeyType, pageSize int64) *OffsetAccessor {
	return &OffsetAccessor{
		id:       uuid.NewString(),
		key:      key,
		kind:     kind,
		svc:      svc,
		pageSize: pageSize,
	}
}

func (a *OffsetAccessor) ID() string           { return a.id }
func (a *OffsetAccessor) Key() string          { return a.key }
func (a *OffsetAccessor) Kind() browse.KeyType { return a.kind }

// Window returns a snapshot of the current window.
func (a *OffsetAccessor) Window() Window {
	a.mu.RLock()
	defer a.mu.RUnlock()
	w := a.window
	w.Elements = append([]Element(nil), a.window.Elements...)
	return w
}

// AbsoluteIndex translates a window-relative index into the collection's
// absolute index. Mutations address elements by absolute index, so a
// window at a non-zero offset must not address element 0.
func (a *OffsetAccessor) AbsoluteIndex(local int) int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.window.Start + int64(local)
}

// Seek replaces the window with the page starting at the given absolute
// offset.
func (a *OffsetAccessor) Seek(ctx context.Context, start int64) error {
	if start < 0 {
		start = 0
	}
	return a.loadAt(ctx, start)
}

// LoadMore replaces the window with the next page. Loading past the end
// is a no-op.
func (a *OffsetAccessor) LoadMore(ctx context.Context) error {
	a.mu.RLock()
	next := a.window.Start + int64(len(a.window.Elements))
	hasMore := a.window.HasMore
	loaded := len(a.window.Elements) > 0 || a.window.Start > 0
	a.mu.RUnlock()

	if loaded && !hasMore {
		return nil
	}
	return a.loadAt(ctx, next)
}

// Reset loads the first page, replacing the window.
func (a *OffsetAccessor) Reset(ctx context.Context) error {
	return a.loadAt(ctx, 0)
}

func (a *OffsetAccessor) loadAt(ctx context.Context, start int64) error {
	if err := a.gate.enter(); err != nil {
		return err
	}
	defer a.gate.exit()

	rng, err := a.svc.driver.FetchSequenceRange(ctx, a.key, start, a.pageSize)
	if err != nil {
		return fmt.Errorf("fetch range %q@%d: %w", a.key, start, err)
	}

	elems := make([]Element, len(rng.Items))
	for i, item := range rng.Items {
		elems[i] = Element{Value: item}
	}

	a.mu.Lock()
	a.window = Window{
		Elements:   elems,
		Start:      start,
		TotalCount: rng.TotalCount,
		HasMore:    start+int64(len(elems)) < rng.TotalCount,
	}
	a.mu.Unlock()
	return nil
}

// refresh reloads the window at its current offset after a mutation.
func (a *OffsetAccessor) refresh(ctx context.Context) error {
	a.mu.RLock()
	start := a.window.Start
	a.mu.RUnlock()
	return a.loadAt(ctx, start)
}

// SetAt overwrites the list element at a window-relative index.
func (a *OffsetAccessor) SetAt(ctx context.Context, local int, value string) error {
	if a.kind != browse.TypeList {
		return fmt.Errorf("%w: set-at on %s", browse.ErrUnsupportedType, a.kind)
	}
	abs := a.AbsoluteIndex(local)
	if err := a.svc.driver.ListSetIndex(ctx, a.key, abs, value); err != nil {
		return err
	}
	a.svc.invalidateKey(ctx, a.key)

	a.mu.Lock()
	if local >= 0 && local < len(a.window.Elements) {
		a.window.Elements[local] = Element{Value: value}
	}
	a.mu.Unlock()
	return nil
}

// Push appends a list element on the given side. The push may create
// the key, so listings are invalidated along with the key's entries.
func (a *OffsetAccessor) Push(ctx context.Context, value string, side browse.ListSide) error {
	if a.kind != browse.TypeList {
		return fmt.Errorf("%w: push on %s", browse.ErrUnsupportedType, a.kind)
	}
	if err := a.svc.driver.ListPush(ctx, a.key, value, side); err != nil {
		return err
	}
	a.svc.invalidateKey(ctx, a.key)
	a.svc.invalidateListings(ctx)
	return a.refresh(ctx)
}

// Pop removes and returns a list element from the given side. Popping
// the last element removes the key.
func (a *OffsetAccessor) Pop(ctx context.Context, side browse.ListSide) (string, bool, error) {
	if a.kind != browse.TypeList {
		return "", false, fmt.Errorf("%w: pop on %s", browse.ErrUnsupportedType, a.kind)
	}
	value, ok, err := a.svc.driver.ListPop(ctx, a.key, side)
	if err != nil {
		return "", false, err
	}
	a.svc.invalidateKey(ctx, a.key)
	a.svc.invalidateListings(ctx)
	if err := a.refresh(ctx); err != nil {
		return value, ok, err
	}
	return value, ok, nil
}

// RemoveValue removes occurrences of a value from the list, with the
// store's count semantics (0 removes all, the sign selects direction).
func (a *OffsetAccessor) RemoveValue(ctx context.Context, count int64, value string) error {
	if a.kind != browse.TypeList {
		return fmt.Errorf("%w: remove on %s", browse.ErrUnsupportedType, a.kind)
	}
	if err := a.svc.driver.ListRemove(ctx, a.key, count, value); err != nil {
		return err
	}
	a.svc.invalidateKey(ctx, a.key)
	a.svc.invalidateListings(ctx)
	return a.refresh(ctx)
}

// AddScoredMember adds or updates a sorted-set member.
func (a *OffsetAccessor) AddScoredMember(ctx context.Context, member string, score float64) error {
	if a.kind != browse.TypeZSet {
		return fmt.Errorf("%w: scored add on %s", browse.ErrUnsupportedType, a.kind)
	}
	if err := a.svc.driver.ZSetAddMember(ctx, a.key, member, score); err != nil {
		return err
	}
	a.svc.invalidateKey(ctx, a.key)
	a.svc.invalidateListings(ctx)
	return a.refresh(ctx)
}

// RemoveScoredMember removes a sorted-set member.
func (a *OffsetAccessor) RemoveScoredMember(ctx context.Context, member string) error {
	if a.kind != browse.TypeZSet {
		return fmt.Errorf("%w: scored remove on %s", browse.ErrUnsupportedType, a.kind)
	}
	if err := a.svc.driver.ZSetRemoveMember(ctx, a.key, member); err != nil {
		return err
	}
	a.svc.invalidateKey(ctx, a.key)
	a.svc.invalidateListings(ctx)
	return a.refresh(ctx)
}

// IncrementScore adjusts a sorted-set member's score and returns the
// new score.
func (a *OffsetAccessor) IncrementScore(ctx context.Context, member string, increment float64) (float64, error) {
	if a.kind != browse.TypeZSet {
		return 0, fmt.Errorf("%w: score increment on %s", browse.ErrUnsupportedType, a.kind)
	}
	score, err := a.svc.driver.ZSetIncrementScore(ctx, a.key, member, increment)
	if err != nil {
		return 0, err
	}
	a.svc.invalidateKey(ctx, a.key)
	if err := a.refresh(ctx); err != nil {
		return score, err
	}
	return score, nil
}

// CursorAccessor accumulates an unordered collection page by page until
// the server cursor is exhausted. The window only grows; Reset starts
// the accumulation over.
type CursorAccessor struct {
	id       string
	key      string
	kind     browse.KeyType
	svc      *KeyService
	pageSize int64

	gate fetchGate

	mu        sync.RWMutex
	elements  []Element
	cursor    browse.ScanCursor
	exhausted bool
}

func newCursorAccessor(svc *KeyService, key string, kind browse.KeyType, pageSize int64) *CursorAccessor {
	return &CursorAccessor{
		id:       uuid.NewString(),
		key:      key,
		kind:     kind,
		svc:      svc,
		pageSize: pageSize,
	}
}

func (a *CursorAccessor) ID() string           { return a.id }
func (a *CursorAccessor) Key() string          { return a.key }
func (a *CursorAccessor) Kind() browse.KeyType { return a.kind }

// Window returns a snapshot of the accumulated elements. TotalCount is
// -1 until the cursor is exhausted.
func (a *CursorAccessor) Window() Window {
	a.mu.RLock()
	defer a.mu.RUnlock()
	total := int64(-1)
	if a.exhausted {
		total = int64(len(a.elements))
	}
	return Window{
		Elements:   append([]Element(nil), a.elements...),
		Start:      0,
		TotalCount: total,
		HasMore:    !a.exhausted,
	}
}

// LoadMore fetches the next page and appends it to the accumulated
// window. Loading past exhaustion is a no-op.
func (a *CursorAccessor) LoadMore(ctx context.Context) error {
	a.mu.RLock()
	if a.exhausted {
		a.mu.RUnlock()
		return nil
	}
	cursor := a.cursor
	a.mu.RUnlock()

	if err := a.gate.enter(); err != nil {
		return err
	}
	defer a.gate.exit()

	batch, next, err := a.fetchPage(ctx, cursor)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.elements = append(a.elements, batch...)
	a.cursor = next
	// Position zero on a returned cursor means the enumeration is done,
	// whether or not the driver set the flag.
	a.exhausted = next.Exhausted || next.IsInitial()
	a.mu.Unlock()
	return nil
}

// Reset discards the accumulation and loads the first page again.
func (a *CursorAccessor) Reset(ctx context.Context) error {
	a.mu.Lock()
	a.elements = nil
	a.cursor = browse.InitialCursor()
	a.exhausted = false
	a.mu.Unlock()
	return a.LoadMore(ctx)
}

func (a *CursorAccessor) fetchPage(ctx context.Context, cursor browse.ScanCursor) ([]Element, browse.ScanCursor, error) {
	switch a.kind {
	case browse.TypeSet:
		page, err := a.svc.driver.FetchSetPage(ctx, a.key, cursor, a.pageSize)
		if err != nil {
			return nil, browse.ScanCursor{}, fmt.Errorf("fetch set page %q: %w", a.key, err)
		}
		elems := make([]Element, len(page.Members))
		for i, m := range page.Members {
			elems[i] = Element{Value: m}
		}
		return elems, page.Cursor, nil
	case browse.TypeHash:
		page, err := a.svc.driver.FetchHashPage(ctx, a.key, cursor, a.pageSize)
		if err != nil {
			return nil, browse.ScanCursor{}, fmt.Errorf("fetch hash page %q: %w", a.key, err)
		}
		elems := make([]Element, len(page.Fields))
		for i, f := range page.Fields {
			elems[i] = Element{Field: f.Field, Value: f.Value}
		}
		return elems, page.Cursor, nil
	default:
		return nil, browse.ScanCursor{}, fmt.Errorf("%w: cursor paging on %s", browse.ErrUnsupportedType, a.kind)
	}
}

// AddMember adds a set member and patches the accumulated window in
// place instead of refetching.
func (a *CursorAccessor) AddMember(ctx context.Context, member string) error {
	if a.kind != browse.TypeSet {
		return fmt.Errorf("%w: member add on %s", browse.ErrUnsupportedType, a.kind)
	}
	if err := a.svc.driver.SetAddMember(ctx, a.key, member); err != nil {
		return err
	}
	a.svc.invalidateKey(ctx, a.key)
	a.svc.invalidateListings(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.elements {
		if e.Value == member {
			return nil
		}
	}
	a.elements = append(a.elements, Element{Value: member})
	return nil
}

// RemoveMember removes a set member and patches the accumulated window.
func (a *CursorAccessor) RemoveMember(ctx context.Context, member string) error {
	if a.kind != browse.TypeSet {
		return fmt.Errorf("%w: member remove on %s", browse.ErrUnsupportedType, a.kind)
	}
	if err := a.svc.driver.SetRemoveMember(ctx, a.key, member); err != nil {
		return err
	}
	a.svc.invalidateKey(ctx, a.key)
	a.svc.invalidateListings(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	for i, e := range a.elements {
		if e.Value == member {
			a.elements = append(a.elements[:i], a.elements[i+1:]...)
			return nil
		}
	}
	return nil
}

// SetField writes a hash field and patches the accumulated window.
func (a *CursorAccessor) SetField(ctx context.Context, field, value string) error {
	if a.kind != browse.TypeHash {
		return fmt.Errorf("%w: field set on %s", browse.ErrUnsupportedType, a.kind)
	}
	if err := a.svc.driver.HashSetField(ctx, a.key, field, value); err != nil {
		return err
	}
	a.svc.invalidateKey(ctx, a.key)
	a.svc.invalidateListings(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	for i, e := range a.elements {
		if e.Field == field {
			a.elements[i].Value = value
			return nil
		}
	}
	a.elements = append(a.elements, Element{Field: field, Value: value})
	return nil
}

// DeleteField removes a hash field and patches the accumulated window.
func (a *CursorAccessor) DeleteField(ctx context.Context, field string) error {
	if a.kind != browse.TypeHash {
		return fmt.Errorf("%w: field delete on %s", browse.ErrUnsupportedType, a.kind)
	}
	if err := a.svc.driver.HashDeleteField(ctx, a.key, field); err != nil {
		return err
	}
	a.svc.invalidateKey(ctx, a.key)
	a.svc.invalidateListings(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	for i, e := range a.elements {
		if e.Field == field {
			a.elements = append(a.elements[:i], a.elements[i+1:]...)
			return nil
		}
	}
	return nil
}

// Compile-time interface checks.
var (
	_ Accessor = (*OffsetAccessor)(nil)
	_ Accessor = (*CursorAccessor)(nil)
)
