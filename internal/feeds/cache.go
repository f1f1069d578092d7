package feeds

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a refreshed snapshot is served before refetching.
const DefaultTTL = 8 * time.Minute

// Collector gathers one Result per configured source.
type Collector interface {
	FetchAll(ctx context.Context) []Result
}

// Snapshot is an immutable view of the cache. Items is sorted newest first
// and must not be modified by callers.
type Snapshot struct {
	UpdatedAt time.Time
	Items     []Item
}

// Cache serves the merged item list of a Collector and refreshes it once
// it is older than the TTL or empty. Refreshes replace the whole snapshot.
type Cache struct {
	collector Collector
	ttl       time.Duration
	now       func() time.Time
	logger    *slog.Logger

	mu   sync.RWMutex
	snap Snapshot

	flight singleflight.Group
}

// CacheOption customizes a Cache.
type CacheOption func(*Cache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the cache logger.
func WithLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

// NewCache creates an empty cache. A non-positive ttl means DefaultTTL.
func NewCache(collector Collector, ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		collector: collector,
		ttl:       ttl,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Items returns the current merged list, refreshing first when stale.
// It never fails; with every source down it returns an empty list.
func (c *Cache) Items(ctx context.Context) []Item {
	snap := c.Snapshot()
	if !c.Stale(snap) {
		return snap.Items
	}
	return c.Refresh(ctx).Items
}

// Snapshot returns the current snapshot without refreshing.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Stale reports whether snap should be refreshed before being served.
func (c *Cache) Stale(snap Snapshot) bool {
	return len(snap.Items) == 0 || c.now().Sub(snap.UpdatedAt) >= c.ttl
}

// Refresh fetches every source and replaces the snapshot. Concurrent callers
// share a single in-flight refresh. The refresh is detached from the
// caller's cancellation so one abandoned request cannot void it for others.
func (c *Cache) Refresh(ctx context.Context) Snapshot {
	v, _, _ := c.flight.Do("refresh", func() (any, error) {
		start := time.Now()
		results := c.collector.FetchAll(context.WithoutCancel(ctx))
		items := Merge(results)

		failed := 0
		for _, res := range results {
			if res.Err != nil {
				failed++
			}
		}
		snap := c.replace(items)
		c.logger.Info("feed cache refreshed",
			"sources", len(results),
			"failed", failed,
			"items", len(items),
			"duration", time.Since(start),
		)
		return snap, nil
	})
	return v.(Snapshot)
}

// replace installs items as the new snapshot. UpdatedAt never moves
// backwards, even when the clock does.
func (c *Cache) replace(items []Item) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	updated := c.now()
	if updated.Before(c.snap.UpdatedAt) {
		updated = c.snap.UpdatedAt
	}
	c.snap = Snapshot{UpdatedAt: updated, Items: items}
	return c.snap
}
