package backend

import (
	"sync"
	"time"
)

// cacheTTL is how long read-mostly catalog responses stay fresh.
const cacheTTL = 5 * time.Minute

type cacheEntry struct {
	value any
	at    time.Time
}

// ttlCache is a synchronous key→{value,timestamp} map. Entries past the TTL
// are evicted lazily on the next read, never swept proactively. Lookups take
// a mutex and nothing else, so cache access never suspends.
type ttlCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *ttlCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.at) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *ttlCache) set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, at: c.now()}
}

func (c *ttlCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
