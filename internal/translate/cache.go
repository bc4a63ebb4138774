package translate

import (
	"sort"
	"time"
)

// DefaultCapacity bounds the cache when no explicit capacity is configured.
const DefaultCapacity = 100

// Entry is one cache record: the stored result plus the bookkeeping that
// drives eviction. It doubles as the persisted JSON shape.
type Entry struct {
	// Key identifies the request as from|to|normalised-text.
	Key string `json:"key"`

	// Result is the stored translation.
	Result Result `json:"result"`

	// UsageCount is how often the entry has been served, the insert included.
	UsageCount int `json:"usage_count"`

	// LastUsed is when the entry was last inserted or served. The entry with
	// the oldest LastUsed is evicted first.
	LastUsed time.Time `json:"last_used"`
}

// Cache is a bounded least-recently-used map of translation results.
//
// It is a plain data structure: time flows in through method parameters and
// persistence happens through explicit [Cache.Snapshot] / [Cache.Restore]
// calls, never as a side effect. Callers that share a Cache across
// goroutines must provide their own locking.
type Cache struct {
	capacity int
	entries  map[string]*Entry
}

// NewCache returns an empty cache bounded to capacity entries. A capacity
// below 1 falls back to [DefaultCapacity].
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*Entry, capacity),
	}
}

// Get returns the result stored under key. A hit increments the entry's
// usage count and refreshes its last-used time to now.
func (c *Cache) Get(key string, now time.Time) (Result, bool) {
	e, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	e.UsageCount++
	e.LastUsed = now
	return e.Result, true
}

// Put stores r under key, replacing any existing entry. When the cache is at
// capacity and key is new, the least recently used entry is evicted first.
// Reports whether an eviction happened.
func (c *Cache) Put(key string, r Result, now time.Time) (evicted bool) {
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldest()
		evicted = true
	}
	c.entries[key] = &Entry{
		Key:        key,
		Result:     r,
		UsageCount: 1,
		LastUsed:   now,
	}
	return evicted
}

// Len returns the number of live entries. Always at most the capacity.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Capacity returns the configured entry bound.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Snapshot returns a copy of every entry, ordered oldest last-used first
// (then by key) so the persisted form is deterministic.
func (c *Cache) Snapshot() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastUsed.Equal(out[j].LastUsed) {
			return out[i].LastUsed.Before(out[j].LastUsed)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Restore replaces the cache contents with entries, typically loaded from a
// store slot. Duplicate keys keep the later record. When entries exceed the
// capacity only the most recently used survive, so the size bound holds even
// against an oversized or hand-edited snapshot.
func (c *Cache) Restore(entries []Entry) {
	c.entries = make(map[string]*Entry, c.capacity)
	for _, e := range entries {
		c.entries[e.Key] = &e
	}
	for len(c.entries) > c.capacity {
		c.evictOldest()
	}
}

// evictOldest removes the entry with the oldest LastUsed, breaking ties by
// key so eviction order is deterministic.
func (c *Cache) evictOldest() {
	var victim string
	var oldest time.Time
	first := true
	for key, e := range c.entries {
		if first || e.LastUsed.Before(oldest) || (e.LastUsed.Equal(oldest) && key < victim) {
			victim, oldest, first = key, e.LastUsed, false
		}
	}
	if !first {
		delete(c.entries, victim)
	}
}
