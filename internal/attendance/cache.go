package attendance

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// StatsCache memoizes expensive aggregate computations keyed by
// (report kind, user). Entries are valid while age < ttl; stale
// entries are recomputed, never served. Concurrent misses for the same
// key collapse into a single computation via singleflight. The cache
// is constructed once at startup and injected into consumers; the
// clock is injectable so tests can control expiry.
type StatsCache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu    sync.RWMutex
	items map[string]cacheEntry
}

type cacheEntry struct {
	value     any
	createdAt time.Time
}

// NewStatsCache builds a cache with the given TTL.
func NewStatsCache(ttl time.Duration) *StatsCache {
	return &StatsCache{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheEntry),
	}
}

// GetOrCompute returns the live cached value for key, or invokes
// compute, stores the result with the current timestamp, and returns
// it. Compute errors are not cached.
func (c *StatsCache) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (any, error)) (any, error) {
	if v, ok := c.get(key); ok {
		return v, nil
	}

	resultChan := c.group.DoChan(key, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have
		// populated the entry while this one was queued.
		if v, ok := c.get(key); ok {
			return v, nil
		}
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.set(key, value)
		return value, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.Val, res.Err
	}
}

// Bust clears every entry. Called after batch writes so readers do not
// see statistics older than the data they just changed.
func (c *StatsCache) Bust() {
	c.mu.Lock()
	c.items = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Sweep removes expired entries and returns how many were dropped.
func (c *StatsCache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, item := range c.items {
		if now.Sub(item.createdAt) >= c.ttl {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

func (c *StatsCache) get(key string) (any, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(item.createdAt) >= c.ttl {
		return nil, false
	}
	return item.value, true
}

func (c *StatsCache) set(key string, value any) {
	c.mu.Lock()
	c.items[key] = cacheEntry{value: value, createdAt: c.now()}
	c.mu.Unlock()
}
