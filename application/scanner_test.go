package application_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/felixgeelhaar/keyscope/application"
	"github.com/felixgeelhaar/keyscope/infrastructure/resilience"
)

func newTestExecutor() *resilience.PageExecutor {
	return resilience.NewPageExecutor(resilience.Config{
		MaxConcurrent: 4,
		FetchTimeout:  5 * time.Second,
	})
}

func TestScannerScanPatterns(t *testing.T) {
	t.Parallel()

	t.Run("deduplicates overlapping patterns", func(t *testing.T) {
		t.Parallel()

		driver := newFakeDriver()
		driver.strings["a:1"] = "x"
		driver.strings["a:10"] = "x"
		driver.strings["a:2"] = "x"
		driver.strings["b:1"] = "x"

		scanner := application.NewScanner("conn", driver, newTestExecutor())
		// a:10 matches both patterns and must appear exactly once.
		keys, err := scanner.ScanPatterns(context.Background(), []string{"a:*", "a:1*"})
		if err != nil {
			t.Fatalf("ScanPatterns() error = %v", err)
		}

		want := []string{"a:1", "a:10", "a:2"}
		if len(keys) != len(want) {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
		for i := range want {
			if keys[i] != want[i] {
				t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
			}
		}
	})

	t.Run("fails the whole scan on one failed pattern", func(t *testing.T) {
		t.Parallel()

		driver := newFakeDriver()
		driver.strings["a:1"] = "x"
		boom := errors.New("store unavailable")
		driver.setFetchErr(boom)

		scanner := application.NewScanner("conn", driver, newTestExecutor())
		keys, err := scanner.ScanPatterns(context.Background(), []string{"a:*", "b:*"})
		if !errors.Is(err, boom) {
			t.Fatalf("ScanPatterns() error = %v, want %v", err, boom)
		}
		if keys != nil {
			t.Errorf("keys = %v, want nil on failure", keys)
		}
	})
}

func TestScannerLargeKeyspaceUnion(t *testing.T) {
	t.Parallel()

	driver := newFakeDriver()
	driver.pageSize = 128
	const prefixes = 40
	const perPrefix = 375
	patterns := make([]string, 0, prefixes)
	for p := 0; p < prefixes; p++ {
		prefix := fmt.Sprintf("svc%02d", p)
		patterns = append(patterns, prefix+":*")
		for i := 0; i < perPrefix; i++ {
			driver.strings[fmt.Sprintf("%s:%04d", prefix, i)] = "x"
		}
	}
	// Bare numeric keys are invisible to every prefix pattern; only the
	// probe can surface them.
	numeric := []string{"7", "42", "77", "256", "999"}
	for _, key := range numeric {
		driver.strings[key] = "x"
	}

	scanner := application.NewScanner("conn", driver, newTestExecutor(),
		application.WithProbeRange(0, 999))
	keys, err := scanner.ScanAll(context.Background(), patterns)
	if err != nil {
		t.Fatalf("ScanAll() error = %v", err)
	}

	if len(keys) != prefixes*perPrefix+len(numeric) {
		t.Fatalf("len(keys) = %d, want %d", len(keys), prefixes*perPrefix+len(numeric))
	}
	if !sort.StringsAreSorted(keys) {
		t.Error("keys are not sorted")
	}
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate key %q", key)
		}
		seen[key] = struct{}{}
	}
	for _, key := range numeric {
		if _, ok := seen[key]; !ok {
			t.Errorf("probe key %q missing from the union", key)
		}
	}
}

func TestScannerProbeNumericKeys(t *testing.T) {
	t.Parallel()

	driver := newFakeDriver()
	driver.strings["7"] = "x"
	driver.strings["42"] = "x"
	driver.strings["a:1"] = "x"

	scanner := application.NewScanner("conn", driver, newTestExecutor(),
		application.WithProbeRange(0, 50))

	found, err := scanner.ProbeNumericKeys(context.Background())
	if err != nil {
		t.Fatalf("ProbeNumericKeys() error = %v", err)
	}
	if len(found) != 2 || found[0] != "7" || found[1] != "42" {
		t.Errorf("found = %v, want [7 42]", found)
	}
}

func TestScannerScanAll(t *testing.T) {
	t.Parallel()

	driver := newFakeDriver()
	driver.strings["a:1"] = "x"
	driver.strings["7"] = "x"

	scanner := application.NewScanner("conn", driver, newTestExecutor(),
		application.WithProbeRange(0, 20))

	keys, err := scanner.ScanAll(context.Background(), []string{"a:*"})
	if err != nil {
		t.Fatalf("ScanAll() error = %v", err)
	}
	// Bare numeric keys are invisible to prefix patterns; the probe must
	// supply them.
	want := []string{"7", "a:1"}
	if len(keys) != len(want) || keys[0] != want[0] || keys[1] != want[1] {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestScannerPurgeMatching(t *testing.T) {
	t.Parallel()

	driver := newFakeDriver()
	for i := 0; i < 5; i++ {
		driver.strings[fmt.Sprintf("tmp:%d", i)] = "x"
	}
	driver.strings["keep:1"] = "x"

	scanner := application.NewScanner("conn", driver, newTestExecutor(),
		application.WithDeleteBatchSize(2))

	removed, err := scanner.PurgeMatching(context.Background(), []string{"tmp:*"})
	if err != nil {
		t.Fatalf("PurgeMatching() error = %v", err)
	}
	if removed != 5 {
		t.Errorf("removed = %d, want 5", removed)
	}

	if got := len(driver.deleteBatches); got != 3 {
		t.Fatalf("delete batches = %d, want 3", got)
	}
	for i, batch := range driver.deleteBatches {
		if len(batch) > 2 {
			t.Errorf("batch %d has %d keys, want <= 2", i, len(batch))
		}
	}

	if _, ok := driver.strings["keep:1"]; !ok {
		t.Error("non-matching key was deleted")
	}
	for i := 0; i < 5; i++ {
		if _, ok := driver.strings[fmt.Sprintf("tmp:%d", i)]; ok {
			t.Errorf("tmp:%d survived the purge", i)
		}
	}
}
