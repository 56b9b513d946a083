package cache

import "strings"

// Namespace tags the kind of data a cache entry holds. Two logically
// identical lookups always produce byte-identical cache keys, which is
// what makes pattern invalidation over the cache's own key space correct.
type Namespace string

const (
	// NamespaceKeys holds bulk key-listing results, keyed by search pattern.
	NamespaceKeys Namespace = "keys"

	// NamespaceValue holds point values, keyed by store key name.
	NamespaceValue Namespace = "value"

	// NamespaceKeyInfo holds key metadata, keyed by store key name.
	NamespaceKeyInfo Namespace = "key-info"
)

// sep separates the namespace, connection, and identifying parts.
const sep = ":"

// Key builds a deterministic cache key from a namespace, a connection
// identity, and the identifying parameters of the lookup.
func Key(ns Namespace, connID string, parts ...string) string {
	b := strings.Builder{}
	b.WriteString(string(ns))
	b.WriteString(sep)
	b.WriteString(connID)
	for _, p := range parts {
		b.WriteString(sep)
		b.WriteString(p)
	}
	return b.String()
}

// ListingPattern returns the glob matching every key-listing entry for a
// connection. Mutations that change which keys exist invalidate with this.
func ListingPattern(connID string) string {
	return string(NamespaceKeys) + sep + connID + sep + "*"
}

// ValueKey returns the point-value cache key for a store key.
func ValueKey(connID, key string) string {
	return Key(NamespaceValue, connID, key)
}

// KeyInfoKey returns the metadata cache key for a store key.
func KeyInfoKey(connID, key string) string {
	return Key(NamespaceKeyInfo, connID, key)
}

// ListingKey returns the key-listing cache key for a search pattern.
func ListingKey(connID, pattern string) string {
	return Key(NamespaceKeys, connID, pattern)
}
