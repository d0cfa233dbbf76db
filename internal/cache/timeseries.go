// Package cache provides a bounded TTL cache of fetched price series.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

const (
	DefaultTTL      = 5 * time.Minute
	DefaultCapacity = 256
)

type entry struct {
	series    *models.PriceSeries
	fetchedAt time.Time
}

// TimeSeriesCache caches price series keyed by the full request tuple.
// Refreshes are coalesced per key: concurrent requests for an identical key
// share one provider call. Refreshing one key never blocks other keys.
// Cache state is process-local and purely a performance optimization.
type TimeSeriesCache struct {
	client   interfaces.MarketDataClient
	logger   *common.Logger
	ttl      time.Duration
	capacity int
	now      func() time.Time // injectable clock for testing

	mu      sync.RWMutex
	entries map[models.SeriesKey]*entry
	group   singleflight.Group
}

// Option configures the cache
type Option func(*TimeSeriesCache)

// WithTTL sets the entry time-to-live
func WithTTL(ttl time.Duration) Option {
	return func(c *TimeSeriesCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCapacity bounds the number of cached series
func WithCapacity(capacity int) Option {
	return func(c *TimeSeriesCache) {
		if capacity > 0 {
			c.capacity = capacity
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) Option {
	return func(c *TimeSeriesCache) {
		c.logger = logger
	}
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(c *TimeSeriesCache) {
		c.now = now
	}
}

// New creates a TimeSeriesCache backed by the given provider client.
func New(client interfaces.MarketDataClient, opts ...Option) *TimeSeriesCache {
	c := &TimeSeriesCache{
		client:   client,
		logger:   common.NewSilentLogger(),
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		now:      time.Now,
		entries:  make(map[models.SeriesKey]*entry),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the series for key. On a hit with an unexpired entry the cached
// series is returned. On miss or expiry the provider is called (coalesced per
// key); the result replaces the entry. When the provider fails, the most
// recent expired entry is served with the Stale flag set; with no entry at
// all the call fails with models.ErrDataUnavailable.
func (c *TimeSeriesCache) Get(ctx context.Context, key models.SeriesKey) (*models.PriceSeries, error) {
	if cached, ok := c.lookup(key, false); ok {
		return cached, nil
	}

	sfKey := fmt.Sprintf("%s|%s|%s|%s", key.Symbol, key.Type, key.Period, key.Interval)
	v, err, _ := c.group.Do(sfKey, func() (interface{}, error) {
		// Re-check under the flight: a racing caller may have refreshed.
		if cached, ok := c.lookup(key, false); ok {
			return cached, nil
		}

		series, fetchErr := c.client.FetchSeries(ctx, key)
		if fetchErr != nil {
			if stale, ok := c.lookup(key, true); ok {
				c.logger.Warn().
					Str("symbol", key.Symbol).
					Err(fetchErr).
					Msg("Provider fetch failed, serving stale series")
				return stale, nil
			}
			return nil, fmt.Errorf("%w: %s: %v", models.ErrDataUnavailable, key.Symbol, fetchErr)
		}

		series.FetchedAt = c.now()
		c.store(key, series)
		return series, nil
	})
	if err != nil {
		return nil, err
	}

	// Every caller, coalesced or not, gets its own copy; the cache keeps
	// ownership of the stored series.
	return clone(v.(*models.PriceSeries)), nil
}

// Peek returns the cached series for key regardless of expiry, without
// touching the provider. Used as a last-known-price fallback.
func (c *TimeSeriesCache) Peek(key models.SeriesKey) (*models.PriceSeries, bool) {
	return c.lookup(key, true)
}

// Len reports the number of cached entries.
func (c *TimeSeriesCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// lookup returns a copy of the entry for key. Expired entries are only
// returned when allowExpired is set, flagged stale.
func (c *TimeSeriesCache) lookup(key models.SeriesKey, allowExpired bool) (*models.PriceSeries, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	expired := c.now().Sub(e.fetchedAt) >= c.ttl
	if expired && !allowExpired {
		return nil, false
	}

	series := clone(e.series)
	series.Stale = expired
	return series, true
}

// clone returns a caller-owned copy of s, points included, so mutations on
// the result never reach cache state.
func clone(s *models.PriceSeries) *models.PriceSeries {
	out := *s
	out.Points = append([]models.PricePoint(nil), s.Points...)
	return &out
}

func (c *TimeSeriesCache) store(key models.SeriesKey, series *models.PriceSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}

	c.entries[key] = &entry{series: series, fetchedAt: c.now()}
}

// evictOldestLocked drops the entry with the oldest fetch time. Caller holds mu.
func (c *TimeSeriesCache) evictOldestLocked() {
	var oldestKey models.SeriesKey
	var oldest time.Time
	first := true
	for k, e := range c.entries {
		if first || e.fetchedAt.Before(oldest) {
			oldestKey, oldest = k, e.fetchedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

// Ensure TimeSeriesCache implements SeriesCache
var _ interfaces.SeriesCache = (*TimeSeriesCache)(nil)
