package store

import (
	"sync"
	"time"

	"github.com/kacan98/weather/internal/weather"
)

// MemoryCache is a concurrency-safe in-memory forecast cache with TTL and
// size-based retention. Departure option generation fetches the same
// coordinates repeatedly across candidate departures; the cache keeps those
// lookups from hammering the upstream providers.
type MemoryCache struct {
	mu sync.RWMutex

	// key: preference + rounded coordinates
	data map[string]weather.CachedForecast

	ttl        time.Duration // max entry age (0 = unlimited)
	maxEntries int           // max cached entries (0 = unlimited)
}

// NewMemoryCache creates a cache with the given retention limits.
func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	return &MemoryCache{
		data:       make(map[string]weather.CachedForecast),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Get returns a cached entry when it is fresh and its horizon covers the
// requested number of hours.
func (c *MemoryCache) Get(key string, hours int) (weather.CachedForecast, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok {
		return weather.CachedForecast{}, false
	}
	if entry.Hours < hours {
		return weather.CachedForecast{}, false
	}
	if c.ttl > 0 && time.Since(entry.FetchedAt) > c.ttl {
		return weather.CachedForecast{}, false
	}
	return entry, true
}

// Put stores an entry, evicting the oldest entries past the size limit.
func (c *MemoryCache) Put(key string, entry weather.CachedForecast) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = entry

	if c.maxEntries > 0 && len(c.data) > c.maxEntries {
		for len(c.data) > c.maxEntries {
			oldestKey := ""
			var oldest time.Time
			for k, e := range c.data {
				if oldestKey == "" || e.FetchedAt.Before(oldest) {
					oldestKey = k
					oldest = e.FetchedAt
				}
			}
			delete(c.data, oldestKey)
		}
	}
}

// Sweep drops expired entries and returns how many were removed.
func (c *MemoryCache) Sweep() int {
	if c.ttl <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-c.ttl)
	removed := 0
	for k, entry := range c.data {
		if entry.FetchedAt.Before(cutoff) {
			delete(c.data, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
