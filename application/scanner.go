package application

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/felixgeelhaar/keyscope/domain/browse"
	"github.com/felixgeelhaar/keyscope/infrastructure/logging"
	"github.com/felixgeelhaar/keyscope/infrastructure/resilience"
	"github.com/felixgeelhaar/keyscope/infrastructure/telemetry"
)

const (
	// DefaultScanPageSize is the per-page hint passed to the store.
	DefaultScanPageSize = 1000

	// DefaultDeleteBatchSize is the number of keys removed per bulk
	// delete round trip.
	DefaultDeleteBatchSize = 1000

	// DefaultProbeLow and DefaultProbeHigh bound the numeric key probe.
	DefaultProbeLow  = 0
	DefaultProbeHigh = 9999
)

// Scanner enumerates keys across multiple independent prefix patterns
// and exposes bulk cleanup over the union of the matches.
type Scanner struct {
	driver  browse.Driver
	exec    *resilience.PageExecutor
	metrics telemetry.Metrics
	connID  string

	pageSize    int64
	deleteBatch int
	probeLow    int64
	probeHigh   int64
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithScanPageSize sets the per-page count hint.
func WithScanPageSize(size int64) ScannerOption {
	return func(s *Scanner) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithDeleteBatchSize sets the bulk delete batch size.
func WithDeleteBatchSize(size int) ScannerOption {
	return func(s *Scanner) {
		if size > 0 {
			s.deleteBatch = size
		}
	}
}

// WithProbeRange sets the inclusive range of integers tried by the
// numeric key probe.
func WithProbeRange(low, high int64) ScannerOption {
	return func(s *Scanner) {
		s.probeLow = low
		s.probeHigh = high
	}
}

// WithScannerMetrics sets the metrics recorder.
func WithScannerMetrics(m telemetry.Metrics) ScannerOption {
	return func(s *Scanner) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewScanner creates a scanner for one connection.
func NewScanner(connID string, driver browse.Driver, exec *resilience.PageExecutor, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		driver:      driver,
		exec:        exec,
		metrics:     &telemetry.NoopMetricsProvider{},
		connID:      connID,
		pageSize:    DefaultScanPageSize,
		deleteBatch: DefaultDeleteBatchSize,
		probeLow:    DefaultProbeLow,
		probeHigh:   DefaultProbeHigh,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanPattern drains the enumeration for a single pattern.
func (s *Scanner) ScanPattern(ctx context.Context, pattern string) ([]string, error) {
	start := time.Now()

	keys, pages, err := Enumerate(ctx, func(ctx context.Context, cursor browse.ScanCursor) ([]string, browse.ScanCursor, error) {
		page, err := s.exec.FetchKeyPage(ctx, func(ctx context.Context) (browse.KeyPage, error) {
			return s.driver.FetchKeyPage(ctx, pattern, cursor, s.pageSize)
		})
		if err != nil {
			return nil, browse.ScanCursor{}, err
		}
		s.metrics.RecordScanPage(ctx, s.connID)
		return page.Keys, page.Cursor, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", pattern, err)
	}

	s.metrics.RecordScanDuration(ctx, s.connID, time.Since(start), len(keys))
	logging.Debug().
		Add(logging.Component("scanner")).
		Add(logging.ConnID(s.connID)).
		Add(logging.Pattern(pattern)).
		Add(logging.Pages(pages)).
		Add(logging.Keys(len(keys))).
		Add(logging.Duration(time.Since(start))).
		Msg("pattern scan complete")
	return keys, nil
}

// ScanPatterns enumerates every pattern as an independent scan and
// returns the deduplicated, sorted union of all matches. Patterns run
// concurrently; the page executor bounds how many fetches are in
// flight. Any failed enumeration fails the whole scan with the partial
// result discarded.
func (s *Scanner) ScanPatterns(ctx context.Context, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		seen     = make(map[string]struct{})
	)

	for _, pattern := range patterns {
		wg.Add(1)
		go func(pattern string) {
			defer wg.Done()
			keys, err := s.ScanPattern(ctx, pattern)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			for _, k := range keys {
				seen[k] = struct{}{}
			}
		}(pattern)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	union := make([]string, 0, len(seen))
	for k := range seen {
		union = append(union, k)
	}
	sort.Strings(union)
	return union, nil
}

// ProbeNumericKeys probes for keys whose names are bare integers, which
// prefix patterns cannot match. Each integer in the configured range is
// checked with a point existence query; the probe is bounded and
// best-effort by construction.
func (s *Scanner) ProbeNumericKeys(ctx context.Context) ([]string, error) {
	var found []string
	for n := s.probeLow; n <= s.probeHigh; n++ {
		name := strconv.FormatInt(n, 10)
		exists, err := s.exec.Probe(ctx, func(ctx context.Context) (bool, error) {
			return s.driver.KeyExists(ctx, name)
		})
		if err != nil {
			return nil, fmt.Errorf("probe %q: %w", name, err)
		}
		if exists {
			found = append(found, name)
		}
	}
	return found, nil
}

// ScanAll combines the pattern scans with the numeric probe and returns
// the deduplicated union.
func (s *Scanner) ScanAll(ctx context.Context, patterns []string) ([]string, error) {
	union, err := s.ScanPatterns(ctx, patterns)
	if err != nil {
		return nil, err
	}

	probed, err := s.ProbeNumericKeys(ctx)
	if err != nil {
		return nil, err
	}
	if len(probed) == 0 {
		return union, nil
	}

	seen := make(map[string]struct{}, len(union)+len(probed))
	for _, k := range union {
		seen[k] = struct{}{}
	}
	for _, k := range probed {
		seen[k] = struct{}{}
	}
	merged := make([]string, 0, len(seen))
	for k := range seen {
		merged = append(merged, k)
	}
	sort.Strings(merged)
	return merged, nil
}

// PurgeMatching scans the given patterns and deletes every matched key
// in bounded batches. Returns the number of keys removed.
func (s *Scanner) PurgeMatching(ctx context.Context, patterns []string) (int, error) {
	keys, err := s.ScanPatterns(ctx, patterns)
	if err != nil {
		return 0, err
	}
	return s.DeleteKeys(ctx, keys)
}

// DeleteKeys removes the given keys in batches of the configured size.
// Returns the number of keys removed before any failure.
func (s *Scanner) DeleteKeys(ctx context.Context, keys []string) (int, error) {
	removed := 0
	for start := 0; start < len(keys); start += s.deleteBatch {
		end := start + s.deleteBatch
		if end > len(keys) {
			end = len(keys)
		}
		if err := s.driver.DeleteKeys(ctx, keys[start:end]); err != nil {
			return removed, fmt.Errorf("bulk delete: %w", err)
		}
		removed += end - start
	}
	if removed > 0 {
		s.metrics.RecordBulkDelete(ctx, removed)
		logging.Info().
			Add(logging.Component("scanner")).
			Add(logging.ConnID(s.connID)).
			Add(logging.Removed(removed)).
			Msg("bulk delete complete")
	}
	return removed, nil
}
