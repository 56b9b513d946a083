package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for keyspace browsing logs.

// ConnID adds a connection ID field.
func ConnID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("conn_id", id)
	}
}

// Pattern adds a search pattern field.
func Pattern(p string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("pattern", p)
	}
}

// StoreKey adds a store key field.
func StoreKey(key string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("key", key)
	}
}

// CacheKey adds a cache key field.
func CacheKey(key string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("cache_key", key)
	}
}

// Cached adds a cached field.
func Cached(cached bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("cached", cached)
	}
}

// Pages adds a page count field.
func Pages(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("pages", n)
	}
}

// Keys adds a key count field.
func Keys(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("keys", n)
	}
}

// Removed adds a removed count field.
func Removed(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("removed", n)
	}
}

// Cursor adds a scan cursor position field.
func Cursor(pos uint64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("cursor", int64(pos))
	}
}

// Session adds a browsing session ID field.
func Session(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("session", id)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
