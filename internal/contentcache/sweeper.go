package contentcache

import (
	"context"
	"time"
)

// Sweep evicts entries idle longer than maxAge as of now. Entries with active
// readers or an extraction in flight are skipped and picked up next pass.
// Returns the number of entries evicted.
func (c *Cache) Sweep(now time.Time, maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, e := range c.entries {
		if c.readers[key] > 0 {
			continue
		}
		if _, inFlight := c.flights[key]; inFlight {
			continue
		}
		if now.Sub(e.LastAccessedAt) > maxAge {
			c.removeEntryLocked(key)
			evicted++
		}
	}
	if evicted > 0 {
		c.persistIndexLocked()
	}
	return evicted
}

// Sweeper periodically evicts idle cache entries.
type Sweeper struct {
	cache    *Cache
	interval time.Duration
	maxAge   time.Duration
}

func NewSweeper(cache *Cache, interval, maxAge time.Duration) *Sweeper {
	return &Sweeper{cache: cache, interval: interval, maxAge: maxAge}
}

// Run sweeps on the configured interval until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			s.cache.Sweep(now.UTC(), s.maxAge)
		case <-ctx.Done():
			return
		}
	}
}
