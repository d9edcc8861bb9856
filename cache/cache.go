// Package cache provides a time-boxed, in-memory read-through cache keyed by
// explicit strings. Entries carry the time they were stored; freshness is
// decided by the TTL supplied on each read, so one cache can serve callers
// with different tolerances for staleness.
package cache

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value    any
	storedAt time.Time
}

// Stats is a point-in-time snapshot of the cache.
type Stats struct {
	Entries int      `json:"entries"`
	Keys    []string `json:"keys"`
	Hits    int64    `json:"hits"`
	Misses  int64    `json:"misses"`
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	hits    int64
	misses  int64
	gen     uint64
	now     func() time.Time
	group   singleflight.Group
}

type Option func(*Cache)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value stored under key if it is younger than ttl.
func (c *Cache) Get(key string, ttl time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.now().Sub(e.storedAt) < ttl {
		c.hits++
		return e.value, true
	}
	c.misses++
	return nil, false
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, storedAt: c.now()}
	c.mu.Unlock()
}

// GetOrLoad returns the fresh value for key, calling load on a miss and
// storing its result. Concurrent misses on the same key share one load.
// Errors from load are returned and never stored.
func (c *Cache) GetOrLoad(key string, ttl time.Duration, load func() (any, error)) (any, bool, error) {
	if v, ok := c.Get(key, ttl); ok {
		return v, true, nil
	}

	// Loads are shared per generation so a read that starts after an
	// invalidation never joins a load that started before it.
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	v, err, _ := c.group.Do(key+"\x00"+strconv.FormatUint(gen, 10), func() (any, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.entries[key] = entry{value: v, storedAt: c.now()}
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, false, nil
}

// Invalidate removes key. An empty key clears the whole cache.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if key == "" {
		c.entries = make(map[string]entry)
		return
	}
	delete(c.entries, key)
}

// Purge drops entries stored more than maxAge ago and returns how many
// were removed.
func (c *Cache) Purge(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.storedAt) >= maxAge {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return Stats{
		Entries: len(c.entries),
		Keys:    keys,
		Hits:    c.hits,
		Misses:  c.misses,
	}
}
