package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/kacan98/weather/internal/weather"
)

func entryAt(fetchedAt time.Time, hours int) weather.CachedForecast {
	return weather.CachedForecast{
		Samples:    make([]weather.Sample, hours),
		ProviderID: "weatherapi",
		Hours:      hours,
		FetchedAt:  fetchedAt,
	}
}

func TestGetMissOnUnknownKey(t *testing.T) {
	c := NewMemoryCache(time.Minute, 10)
	if _, ok := c.Get("auto:55.670:12.560", 6); ok {
		t.Fatal("unknown key must miss")
	}
}

func TestGetHitWithinHorizon(t *testing.T) {
	c := NewMemoryCache(time.Minute, 10)
	c.Put("k", entryAt(time.Now(), 12))

	entry, ok := c.Get("k", 6)
	if !ok {
		t.Fatal("expected hit for request within the cached horizon")
	}
	if entry.ProviderID != "weatherapi" || entry.Hours != 12 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestGetMissOnInsufficientHorizon(t *testing.T) {
	c := NewMemoryCache(time.Minute, 10)
	c.Put("k", entryAt(time.Now(), 6))

	if _, ok := c.Get("k", 12); ok {
		t.Fatal("request beyond the cached horizon must miss")
	}
}

func TestGetMissOnStaleEntry(t *testing.T) {
	c := NewMemoryCache(time.Minute, 10)
	c.Put("k", entryAt(time.Now().Add(-2*time.Minute), 12))

	if _, ok := c.Get("k", 6); ok {
		t.Fatal("stale entry must miss")
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := NewMemoryCache(0, 10)
	c.Put("k", entryAt(time.Now().Add(-24*time.Hour), 12))

	if _, ok := c.Get("k", 6); !ok {
		t.Fatal("zero ttl must keep entries indefinitely")
	}
	if removed := c.Sweep(); removed != 0 {
		t.Fatalf("sweep with zero ttl removed %d entries", removed)
	}
}

func TestPutEvictsOldest(t *testing.T) {
	c := NewMemoryCache(time.Hour, 2)
	now := time.Now()

	c.Put("oldest", entryAt(now.Add(-3*time.Minute), 6))
	c.Put("middle", entryAt(now.Add(-2*time.Minute), 6))
	c.Put("newest", entryAt(now, 6))

	if c.Len() != 2 {
		t.Fatalf("len: want 2, got %d", c.Len())
	}
	if _, ok := c.Get("oldest", 1); ok {
		t.Fatal("the oldest entry must have been evicted")
	}
	for _, key := range []string{"middle", "newest"} {
		if _, ok := c.Get(key, 1); !ok {
			t.Fatalf("entry %q must survive eviction", key)
		}
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)
	now := time.Now()

	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("stale-%d", i), entryAt(now.Add(-5*time.Minute), 6))
	}
	c.Put("fresh", entryAt(now, 6))

	if removed := c.Sweep(); removed != 3 {
		t.Fatalf("sweep: want 3 removed, got %d", removed)
	}
	if c.Len() != 1 {
		t.Fatalf("len after sweep: want 1, got %d", c.Len())
	}
	if _, ok := c.Get("fresh", 1); !ok {
		t.Fatal("fresh entry must survive the sweep")
	}
}
