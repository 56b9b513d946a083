// Package application orchestrates the keyspace cache, the cursor
// enumeration protocol, and windowed collection access.
package application

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/keyscope/domain/browse"
)

// PageFunc fetches one bounded page of an enumeration starting at the
// given cursor.
type PageFunc[T any] func(ctx context.Context, cursor browse.ScanCursor) ([]T, browse.ScanCursor, error)

// Enumerate drains a server-held collection through repeated bounded
// page fetches, starting from the initial cursor and accumulating items
// until the driver signals exhaustion.
//
// An empty page with a live cursor is a valid intermediate state for
// scan-style enumeration over sparse data; the loop terminates only on
// the exhaustion signal, never on an empty batch. Position zero is the
// termination signal, so a driver that echoes the initial cursor cannot
// make the loop spin forever. A page-fetch failure aborts the
// enumeration with the partial result discarded; retry policy belongs
// to the caller.
//
// Returns the accumulated items and the number of pages fetched.
func Enumerate[T any](ctx context.Context, fetch PageFunc[T]) ([]T, int, error) {
	var (
		items  []T
		pages  int
		cursor = browse.InitialCursor()
	)

	for {
		batch, next, err := fetch(ctx, cursor)
		if err != nil {
			return nil, pages, err
		}
		pages++
		items = append(items, batch...)

		if next.Exhausted {
			if !next.IsInitial() {
				return nil, pages, fmt.Errorf("%w: exhausted at position %d", browse.ErrInvalidCursor, next.Position)
			}
			return items, pages, nil
		}
		if next.IsInitial() {
			return items, pages, nil
		}
		cursor = next
	}
}

// EnumerateKeys drains a key scan for one pattern through the driver.
func EnumerateKeys(ctx context.Context, driver browse.KeyReader, pattern string, pageSize int64) ([]string, int, error) {
	return Enumerate(ctx, func(ctx context.Context, cursor browse.ScanCursor) ([]string, browse.ScanCursor, error) {
		page, err := driver.FetchKeyPage(ctx, pattern, cursor, pageSize)
		if err != nil {
			return nil, browse.ScanCursor{}, err
		}
		return page.Keys, page.Cursor, nil
	})
}
