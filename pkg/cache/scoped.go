package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation. This is
// useful when different projects or CI jobs share a cache backend (e.g. the
// same Redis instance) but must not see each other's resolutions.
//
// Example usage:
//
//	// Project-specific keys
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "project:abc123:")
//
//	// Global keys for a shared module proxy
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// ModuleKey generates a prefixed key for resolved-module caching.
func (k *ScopedKeyer) ModuleKey(registry, coordinate string) string {
	return k.prefix + k.inner.ModuleKey(registry, coordinate)
}

// ArchiveKey generates a prefixed key for fetched-archive caching.
func (k *ScopedKeyer) ArchiveKey(digest string) string {
	return k.prefix + k.inner.ArchiveKey(digest)
}
