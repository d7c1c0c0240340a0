// Package cache holds the in-process tier of the embedding cache. Vectors
// for recently embedded texts stay in memory for a short TTL; the persistent
// tier lives behind the Redis repository.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// VectorLRU is a small in-memory LRU cache with per-entry TTL. It stores
// embedding vectors keyed by content hash. Methods are safe for concurrent
// use.
type VectorLRU struct {
	mu     sync.Mutex
	cap    int
	ll     *list.List               // front = most-recently used
	items  map[string]*list.Element // key -> element
	now    func() time.Time         // injectable clock for tests
	hits   atomic.Uint64
	misses atomic.Uint64
	evicts atomic.Uint64
}

type lruEntry struct {
	key    string
	vector []float32
	expiry time.Time // zero means no expiry
}

// VectorLRUConfig groups constructor options.
type VectorLRUConfig struct {
	Capacity int
	Now      func() time.Time
}

// DefaultVectorLRUConfig returns sensible defaults.
func DefaultVectorLRUConfig() VectorLRUConfig {
	return VectorLRUConfig{Capacity: 4096, Now: time.Now}
}

// NewVectorLRU creates a new VectorLRU with the given config.
func NewVectorLRU(cfg VectorLRUConfig) *VectorLRU {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 4096
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &VectorLRU{
		cap:   capacity,
		ll:    list.New(),
		items: make(map[string]*list.Element, capacity),
		now:   nowFn,
	}
}

// Get returns the vector for key if present and not expired.
func (c *VectorLRU) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, found := c.items[key]; found {
		ent, entryOK := el.Value.(*lruEntry)
		if !entryOK {
			c.removeElement(el)
			c.misses.Add(1)
			return nil, false
		}
		if c.isExpired(ent) {
			c.removeElement(el)
			c.misses.Add(1)
			return nil, false
		}
		c.ll.MoveToFront(el)
		c.hits.Add(1)
		return ent.vector, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set inserts or updates a vector with TTL.
// ttl <= 0 means no expiration.
func (c *VectorLRU) Set(key string, vector []float32, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}

	if el, found := c.items[key]; found {
		if ent, entryOK := el.Value.(*lruEntry); entryOK {
			ent.vector = vector
			ent.expiry = exp
			c.ll.MoveToFront(el)
			return
		}
		c.removeElement(el)
	}

	el := c.ll.PushFront(&lruEntry{key: key, vector: vector, expiry: exp})
	c.items[key] = el
	c.evictIfNeeded()
}

// Delete removes a key from the cache.
func (c *VectorLRU) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
		return true
	}
	return false
}

// Len returns the current number of items in the cache.
func (c *VectorLRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// VectorLRUStats are simple counters for observability.
type VectorLRUStats struct {
	Hits, Misses, Evictions uint64
	Size, Capacity          int
}

// Stats returns a snapshot of counters and sizes.
func (c *VectorLRU) Stats() VectorLRUStats {
	return VectorLRUStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evicts.Load(),
		Size:      c.Len(),
		Capacity:  c.cap,
	}
}

// Helpers (caller must hold c.mu).
func (c *VectorLRU) isExpired(e *lruEntry) bool {
	if e.expiry.IsZero() {
		return false
	}
	return c.now().After(e.expiry)
}

func (c *VectorLRU) removeElement(el *list.Element) {
	c.ll.Remove(el)
	if ent, ok := el.Value.(*lruEntry); ok {
		delete(c.items, ent.key)
		return
	}
	for k, v := range c.items {
		if v == el {
			delete(c.items, k)
			break
		}
	}
}

func (c *VectorLRU) evictIfNeeded() {
	for c.ll.Len() > c.cap {
		el := c.ll.Back()
		if el == nil {
			return
		}
		c.removeElement(el)
		c.evicts.Add(1)
	}
}
