package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/keyscope/domain/cache"
	"github.com/felixgeelhaar/keyscope/infrastructure/storage/memory"
)

func TestCacheGetSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("round trips a value", func(t *testing.T) {
		t.Parallel()
		c := memory.NewCache()

		if err := c.Set(ctx, "k", []byte("v"), cache.SetOptions{TTL: time.Minute}); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, ok, err := c.Get(ctx, "k")
		if err != nil || !ok {
			t.Fatalf("Get() = %v, %v, %v", got, ok, err)
		}
		if string(got) != "v" {
			t.Errorf("Get() = %q, want %q", got, "v")
		}
	})

	t.Run("missing key is a miss, not an error", func(t *testing.T) {
		t.Parallel()
		c := memory.NewCache()

		_, ok, err := c.Get(ctx, "absent")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() reported a hit for an absent key")
		}
	})

	t.Run("rejects empty keys", func(t *testing.T) {
		t.Parallel()
		c := memory.NewCache()

		err := c.Set(ctx, "", []byte("v"), cache.SetOptions{})
		if !errors.Is(err, cache.ErrInvalidKey) {
			t.Errorf("Set() error = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		t.Parallel()
		c := memory.NewCache()

		if err := c.Set(ctx, "k", []byte("abc"), cache.SetOptions{}); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, _, _ := c.Get(ctx, "k")
		got[0] = 'x'
		again, _, _ := c.Get(ctx, "k")
		if string(again) != "abc" {
			t.Errorf("cached value mutated through the returned slice: %q", again)
		}
	})

	t.Run("set resets the entry's age", func(t *testing.T) {
		t.Parallel()
		c := memory.NewCache()

		if err := c.Set(ctx, "k", []byte("old"), cache.SetOptions{TTL: 30 * time.Millisecond}); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		time.Sleep(20 * time.Millisecond)
		if err := c.Set(ctx, "k", []byte("new"), cache.SetOptions{TTL: 30 * time.Millisecond}); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		time.Sleep(20 * time.Millisecond)

		// 40ms after the first write but only 20ms after the second: live.
		got, ok, _ := c.Get(ctx, "k")
		if !ok || string(got) != "new" {
			t.Errorf("Get() = %q, %v; want new, true", got, ok)
		}
	})
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("expired entries are never returned", func(t *testing.T) {
		t.Parallel()
		c := memory.NewCache()

		if err := c.Set(ctx, "k", []byte("v"), cache.SetOptions{TTL: 10 * time.Millisecond}); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		time.Sleep(30 * time.Millisecond)

		_, ok, err := c.Get(ctx, "k")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() returned an expired entry")
		}
		if c.Size() != 0 {
			t.Errorf("Size() = %d, want 0 after lazy eviction", c.Size())
		}
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		t.Parallel()
		c := memory.NewCache()

		if err := c.Set(ctx, "k", []byte("v"), cache.SetOptions{}); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		time.Sleep(20 * time.Millisecond)

		if _, ok, _ := c.Get(ctx, "k"); !ok {
			t.Error("zero-TTL entry expired")
		}
		if c.Sweep() != 0 {
			t.Error("Sweep() evicted a zero-TTL entry")
		}
	})

	t.Run("exists applies the same liveness check", func(t *testing.T) {
		t.Parallel()
		c := memory.NewCache()

		if err := c.Set(ctx, "k", []byte("v"), cache.SetOptions{TTL: 10 * time.Millisecond}); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if ok, _ := c.Exists(ctx, "k"); !ok {
			t.Fatal("Exists() = false for a live entry")
		}
		time.Sleep(30 * time.Millisecond)
		if ok, _ := c.Exists(ctx, "k"); ok {
			t.Error("Exists() = true for an expired entry")
		}
	})
}

func TestCacheInvalidatePattern(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	seed := func(t *testing.T) *memory.Cache {
		t.Helper()
		c := memory.NewCache()
		for _, k := range []string{
			"keys:conn1:user:*",
			"keys:conn1:session:*",
			"keys:conn2:user:*",
			"value:conn1:user:1",
			"key-info:conn1:user:1",
		} {
			if err := c.Set(ctx, k, []byte("v"), cache.SetOptions{}); err != nil {
				t.Fatalf("Set(%q) error = %v", k, err)
			}
		}
		return c
	}

	t.Run("removes only matching entries", func(t *testing.T) {
		t.Parallel()
		c := seed(t)

		removed, err := c.InvalidatePattern(ctx, "keys:conn1:*")
		if err != nil {
			t.Fatalf("InvalidatePattern() error = %v", err)
		}
		if removed != 2 {
			t.Errorf("removed = %d, want 2", removed)
		}

		// Other connections and other namespaces survive.
		for _, k := range []string{"keys:conn2:user:*", "value:conn1:user:1", "key-info:conn1:user:1"} {
			if ok, _ := c.Exists(ctx, k); !ok {
				t.Errorf("entry %q was wrongly invalidated", k)
			}
		}
	})

	t.Run("question mark matches exactly one character", func(t *testing.T) {
		t.Parallel()
		c := memory.NewCache()
		for _, k := range []string{"value:c:a1", "value:c:a12", "value:c:a"} {
			if err := c.Set(ctx, k, []byte("v"), cache.SetOptions{}); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
		}

		removed, err := c.InvalidatePattern(ctx, "value:c:a?")
		if err != nil {
			t.Fatalf("InvalidatePattern() error = %v", err)
		}
		if removed != 1 {
			t.Errorf("removed = %d, want 1", removed)
		}
		if ok, _ := c.Exists(ctx, "value:c:a1"); ok {
			t.Error("value:c:a1 should have been removed")
		}
	})

	t.Run("match is anchored to the whole key", func(t *testing.T) {
		t.Parallel()
		c := memory.NewCache()
		if err := c.Set(ctx, "prefix:keys:conn1:x", []byte("v"), cache.SetOptions{}); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		removed, err := c.InvalidatePattern(ctx, "keys:conn1:*")
		if err != nil {
			t.Fatalf("InvalidatePattern() error = %v", err)
		}
		if removed != 0 {
			t.Error("pattern matched a substring instead of the whole key")
		}
	})

	t.Run("zero matches is not an error", func(t *testing.T) {
		t.Parallel()
		c := memory.NewCache()

		removed, err := c.InvalidatePattern(ctx, "nothing:*")
		if err != nil || removed != 0 {
			t.Errorf("InvalidatePattern() = %d, %v; want 0, nil", removed, err)
		}
	})

	t.Run("malformed pattern removes nothing", func(t *testing.T) {
		t.Parallel()
		c := seed(t)

		_, err := c.InvalidatePattern(ctx, `keys:conn1:\`)
		if !errors.Is(err, cache.ErrBadPattern) {
			t.Fatalf("InvalidatePattern() error = %v, want ErrBadPattern", err)
		}
		if c.Size() != 5 {
			t.Errorf("Size() = %d after rejected pattern, want 5", c.Size())
		}
	})

	t.Run("escaped wildcard matches literally", func(t *testing.T) {
		t.Parallel()
		c := memory.NewCache()
		for _, k := range []string{"keys:c:user:*", "keys:c:user:1"} {
			if err := c.Set(ctx, k, []byte("v"), cache.SetOptions{}); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
		}

		removed, err := c.InvalidatePattern(ctx, `keys:c:user:\*`)
		if err != nil {
			t.Fatalf("InvalidatePattern() error = %v", err)
		}
		if removed != 1 {
			t.Errorf("removed = %d, want only the literal star entry", removed)
		}
		if ok, _ := c.Exists(ctx, "keys:c:user:1"); !ok {
			t.Error("keys:c:user:1 was wrongly invalidated")
		}
	})
}

func TestCacheSweep(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := memory.NewCache()
	if err := c.Set(ctx, "short", []byte("v"), cache.SetOptions{TTL: 10 * time.Millisecond}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Set(ctx, "long", []byte("v"), cache.SetOptions{TTL: time.Hour}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Set(ctx, "pinned", []byte("v"), cache.SetOptions{}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if removed := c.Sweep(); removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d after sweep, want 2", c.Size())
	}
}

func TestCacheSweeperLifecycle(t *testing.T) {
	t.Parallel()

	c := memory.NewCache()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := c.Set(ctx, "k", []byte("v"), cache.SetOptions{TTL: 5 * time.Millisecond}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	c.StartSweeper(ctx, 10*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for c.Size() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper never evicted the expired entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCacheStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := memory.NewCache()
	if err := c.Set(ctx, "k", []byte("v"), cache.SetOptions{}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	c.Get(ctx, "k")
	c.Get(ctx, "k")
	c.Get(ctx, "missing")

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("Stats() = %+v, want 2 hits, 1 miss, size 1", stats)
	}
}

func TestCacheClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := memory.NewCache()
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte("v"), cache.SetOptions{}); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after Clear, want 0", c.Size())
	}
}
