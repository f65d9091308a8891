package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cqlang/cq-engine/cq/atom"
)

// Cache memoizes the catalog-independent half of planning (normalize +
// classify + safety check) keyed by the query's textual shape, so a
// repeated query string skips straight to instantiate (§4.4).
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	maxSize int
	ttl     time.Duration

	hits   int64
	misses int64
}

type cacheEntry struct {
	plan      plan
	timestamp time.Time
}

// NewCache builds a Cache holding at most maxSize entries, each valid
// for ttl. maxSize<=0 defaults to 1000, ttl<=0 defaults to 5 minutes.
func NewCache(maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns the cached plan for q, if present and unexpired.
func (c *Cache) Get(q atom.Query) (plan, bool) {
	if c == nil {
		return plan{}, false
	}

	key := c.key(q)

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return plan{}, false
	}
	if time.Since(entry.timestamp) > c.ttl {
		atomic.AddInt64(&c.misses, 1)
		return plan{}, false
	}

	atomic.AddInt64(&c.hits, 1)
	return entry.plan, true
}

// Put stores pl under q's key, evicting expired then oldest entries if
// the cache is at capacity.
func (c *Cache) Put(q atom.Query, pl plan) {
	if c == nil {
		return
	}

	key := c.key(q)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evictExpired()
		if len(c.entries) >= c.maxSize {
			c.evictOldest()
		}
	}

	c.entries[key] = &cacheEntry{plan: pl, timestamp: time.Now()}
}

// Clear empties the cache and resets its statistics.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
}

// Stats reports cumulative hit/miss counts and current entry count.
func (c *Cache) Stats() (hits, misses int64, size int) {
	if c == nil {
		return 0, 0, 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses), len(c.entries)
}

func (c *Cache) evictExpired() {
	now := time.Now()
	for k, e := range c.entries {
		if now.Sub(e.timestamp) > c.ttl {
			delete(c.entries, k)
		}
	}
}

func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for k, e := range c.entries {
		if first || e.timestamp.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.timestamp
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// key hashes q's canonical textual rendering with sha256. Query.String
// already serializes head, body order, and every atom's exact terms,
// so two queries with the same key are identical for planning purposes.
func (c *Cache) key(q atom.Query) string {
	h := sha256.New()
	fmt.Fprint(h, q.String())
	return hex.EncodeToString(h.Sum(nil))
}
