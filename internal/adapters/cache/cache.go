// Package cache provides the read-through query cache for upstream reads.
package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tneacademy/vantage/pkg/metrics"
)

// LoadFunc performs the underlying read on a cache miss.
type LoadFunc func(ctx context.Context) (interface{}, error)

// Cache coalesces and remembers upstream reads.
type Cache interface {
	// Do returns the live cached value for key, joins an in-flight load for
	// the same key, or executes load and stores the result for ttl.
	// Failed loads are never stored. A non-positive ttl bypasses the cache.
	Do(ctx context.Context, key string, ttl time.Duration, load LoadFunc) (interface{}, error)

	// Invalidate drops key so the next Do reloads it.
	Invalidate(ctx context.Context, key string)

	Size() int64
}

// entry is one keyed slot. Waiters read val and err only after done is
// closed, so those fields are immutable from that point on.
type entry struct {
	key       string
	val       interface{}
	err       error
	ready     bool
	expiresAt time.Time
	done      chan struct{}
	prev      *entry
	next      *entry
}

// inMemoryCache implements Cache with a map plus a doubly linked list in
// recency order (head = most recently used). Expired entries are dropped
// lazily on access; capacity evicts from the tail.
type inMemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry
	tail       *entry
	maxEntries int
	size       atomic.Int64
}

// NewInMemoryCache creates a new in-memory cache with configuration options.
func NewInMemoryCache(opts ...Option) Cache {
	c := &inMemoryCache{
		maxEntries: 4096, // default capacity
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	c.entries = make(map[string]*entry)

	return c
}

// Do implements the read-through contract.
func (c *inMemoryCache) Do(ctx context.Context, key string, ttl time.Duration, load LoadFunc) (interface{}, error) {
	if ttl <= 0 {
		return load(ctx)
	}

	resource := resourceOf(key)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if !e.ready {
			// Someone else is loading this key; join them.
			c.mu.Unlock()
			metrics.RecordCacheCoalesced(resource)
			return await(ctx, e)
		}
		if time.Now().Before(e.expiresAt) {
			c.moveToFront(e)
			c.mu.Unlock()
			metrics.RecordCacheHit(resource)
			return e.val, nil
		}
		// Expired: drop and fall through to a fresh load.
		c.remove(e)
		metrics.RecordCacheEviction()
	}

	e := &entry{key: key, done: make(chan struct{})}
	c.insertFront(e)
	c.entries[key] = e
	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
	c.size.Store(int64(len(c.entries)))
	metrics.UpdateCacheEntries(len(c.entries))
	c.mu.Unlock()

	metrics.RecordCacheMiss(resource)

	val, err := load(ctx)

	c.mu.Lock()
	// The slot may have been invalidated or replaced while loading; only
	// publish into it if it is still current.
	if current, ok := c.entries[key]; ok && current == e {
		if err != nil {
			c.remove(e)
		} else {
			e.ready = true
			e.expiresAt = time.Now().Add(ttl)
		}
	}
	e.val = val
	e.err = err
	c.size.Store(int64(len(c.entries)))
	metrics.UpdateCacheEntries(len(c.entries))
	c.mu.Unlock()

	close(e.done)
	return val, err
}

// Invalidate drops key so the next Do reloads it.
func (c *inMemoryCache) Invalidate(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && e.ready {
		c.remove(e)
		c.size.Store(int64(len(c.entries)))
		metrics.UpdateCacheEntries(len(c.entries))
	}
}

// Size returns the current number of entries, in-flight loads included.
func (c *inMemoryCache) Size() int64 {
	return c.size.Load()
}

// await blocks until the in-flight load for e settles or ctx ends.
func await(ctx context.Context, e *entry) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
		return e.val, e.err
	}
}

// insertFront links e as the most recently used entry.
// Must be called with c.mu held.
func (c *inMemoryCache) insertFront(e *entry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

// moveToFront refreshes e's recency.
// Must be called with c.mu held.
func (c *inMemoryCache) moveToFront(e *entry) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.insertFront(e)
}

// remove unlinks e and forgets its key.
// Must be called with c.mu held.
func (c *inMemoryCache) remove(e *entry) {
	delete(c.entries, e.key)
	c.unlink(e)
}

// unlink detaches e from the recency list.
// Must be called with c.mu held.
func (c *inMemoryCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else if c.head == e {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else if c.tail == e {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

// evictTail removes the least recently used ready entry. In-flight loads
// are never evicted; their waiters hold the slot.
// Must be called with c.mu held.
func (c *inMemoryCache) evictTail() {
	for e := c.tail; e != nil; e = e.prev {
		if !e.ready {
			continue
		}
		c.remove(e)
		metrics.RecordCacheEviction()
		return
	}
}

// resourceOf extracts the metric label from a key such as "scores:a-123".
func resourceOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
