// Package cache provides the read-through query cache for upstream reads.
package cache

// Option applies a configuration option to the in-memory cache.
type Option func(*inMemoryCache)

// WithMaxEntries caps the number of cached entries before the least
// recently used ready entry is evicted. Non-positive values keep the
// default capacity.
func WithMaxEntries(maxEntries int) Option {
	return func(c *inMemoryCache) {
		if maxEntries > 0 {
			c.maxEntries = maxEntries
		}
	}
}
