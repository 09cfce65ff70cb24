// Package cache provides a pluggable byte-cache abstraction for registry
// responses and fetched archives, with file, Redis, and MongoDB backed
// implementations.
//
// # Usage
//
//	c, err := cache.NewFileCache(".depforge-cache/http")
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.ModuleKey("proxy.golang.org", "github.com/foo/bar@v1.2.3")
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// TTL defaults for the two classes of cached data the engine produces.
const (
	// TTLModule bounds how long a registry's resolved-version/metadata
	// response is trusted before a driver re-fetches it.
	TTLModule = 24 * time.Hour

	// TTLArchive is unbounded: a cached archive never expires. urlsrc caches
	// downloads with this TTL under a key derived from the URL, so a later
	// change to the content behind the same URL is not fetched again.
	TTLArchive = 0
)

// Cache stores and retrieves opaque byte blobs keyed by string, with
// optional per-entry expiration.
type Cache interface {
	// Get retrieves a value. hit is false if the key was absent or expired.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	// Set stores a value. A zero ttl means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases any resources held by the cache (connections, files).
	Close() error
}

// Keyer derives deterministic cache keys from a driver's request shape.
// Keeping key derivation out of the drivers lets callers namespace or scope
// keys (see ScopedKeyer) without touching driver code.
type Keyer interface {
	// HTTPKey derives a cache key for a raw HTTP GET, scoped by namespace
	// (typically the driver name) and the request's own identity (URL).
	HTTPKey(namespace, key string) string
	// ModuleKey derives a cache key for a resolved registry coordinate
	// (e.g. "proxy.golang.org" + "github.com/foo/bar@v1.2.3").
	ModuleKey(registry, coordinate string) string
	// ArchiveKey derives a cache key for fetched archive bytes, addressed
	// by their content digest so the same bytes always hit regardless of
	// which coordinate originally produced them.
	ArchiveKey(digest string) string
}

// DefaultKeyer is the unscoped Keyer used when no multi-tenant isolation is
// required.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the unscoped default Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return hashKey("http:"+namespace, key)
}

func (DefaultKeyer) ModuleKey(registry, coordinate string) string {
	return hashKey("module:"+registry, coordinate)
}

func (DefaultKeyer) ArchiveKey(digest string) string {
	return "archive:" + digest
}
