package country

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const (
	// DefaultMaxEntries bounds the memo table.
	DefaultMaxEntries = 10000
	// DefaultMaxAge is the write age after which an entry is stale.
	DefaultMaxAge = 10 * time.Minute
)

// CachedResolver memoizes another Resolver. Entries are keyed on the exact
// "lat:lon" strings as received and evicted in insertion order once the table
// is full or the entry's write age exceeds the limit. Unresolved results are
// cached too, so a flapping provider is not hammered.
type CachedResolver struct {
	inner      Resolver
	maxEntries int
	maxAge     time.Duration
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
}

type cacheEntry struct {
	key       string
	code      string
	writtenAt time.Time
}

// NewCachedResolver wraps inner with the default bounds.
func NewCachedResolver(inner Resolver) *CachedResolver {
	return newCachedResolver(inner, DefaultMaxEntries, DefaultMaxAge, time.Now)
}

func newCachedResolver(inner Resolver, maxEntries int, maxAge time.Duration, now func() time.Time) *CachedResolver {
	return &CachedResolver{
		inner:      inner,
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        now,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

// ResolveCountry returns the memoized code or falls through to the inner
// resolver and records the answer.
func (c *CachedResolver) ResolveCountry(ctx context.Context, lat, lon string) string {
	key := lat + ":" + lon

	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		if c.now().Sub(entry.writtenAt) <= c.maxAge {
			code := entry.code
			c.mu.Unlock()
			return code
		}
		c.order.Remove(el)
		delete(c.entries, key)
	}
	c.mu.Unlock()

	code := c.inner.ResolveCountry(ctx, lat, lon)

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		// Lost a race with a concurrent lookup; refresh in place
		el.Value.(*cacheEntry).code = code
		el.Value.(*cacheEntry).writtenAt = c.now()
		return code
	}
	for c.order.Len() >= c.maxEntries {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	c.entries[key] = c.order.PushBack(&cacheEntry{key: key, code: code, writtenAt: c.now()})
	return code
}

// Len returns the number of stored entries, including expired ones that no
// lookup has removed yet.
func (c *CachedResolver) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
