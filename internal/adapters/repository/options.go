package repository

import (
	"time"

	"github.com/okian/scrollstats/internal/adapters/source"
	"github.com/okian/scrollstats/pkg/logger"
)

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithSource sets the locator of a dataset. An empty locator leaves the
// dataset unconfigured.
func WithSource(id ID, locator string) Option {
	return func(c *Cache) {
		if s, ok := c.slots[id]; ok {
			s.locator = locator
		}
	}
}

// WithTTL sets the expiry of every dataset; 0 disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl >= 0 {
			for _, s := range c.slots {
				s.ttl = ttl
			}
		}
	}
}

// WithDatasetTTL overrides the expiry of one dataset.
func WithDatasetTTL(id ID, ttl time.Duration) Option {
	return func(c *Cache) {
		if s, ok := c.slots[id]; ok && ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithRetryBackoff sets how long an expired dataset with stale data waits
// after a failed fetch before Ensure tries again.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Cache) {
		if d >= 0 {
			c.retryBackoff = d
		}
	}
}

// WithFetcher replaces the source fetcher.
func WithFetcher(f source.Fetcher) Option {
	return func(c *Cache) {
		if f != nil {
			c.fetcher = f
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}
