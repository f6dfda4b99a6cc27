package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/okian/scrollstats/internal/adapters/source"
	"github.com/okian/scrollstats/internal/domain/columns"
	"github.com/okian/scrollstats/internal/domain/table"
	"github.com/okian/scrollstats/pkg/logger"
	"github.com/okian/scrollstats/pkg/metrics"
)

const (
	defaultTTL          = 6 * time.Hour
	defaultRetryBackoff = time.Minute
)

type slot struct {
	id      ID
	locator string
	ttl     time.Duration

	current atomic.Pointer[Dataset]

	mu          sync.Mutex
	lastErr     error
	lastFailure time.Time
}

func (s *slot) configured() bool { return strings.TrimSpace(s.locator) != "" }

func (s *slot) recordFailure(err error, at time.Time) {
	s.mu.Lock()
	s.lastErr = err
	s.lastFailure = at
	s.mu.Unlock()
}

func (s *slot) clearFailure() {
	s.mu.Lock()
	s.lastErr = nil
	s.lastFailure = time.Time{}
	s.mu.Unlock()
}

func (s *slot) failure() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFailure, s.lastErr
}

// Cache implements Store. Each dataset's generation is published through an
// atomic pointer, so readers see either the whole old or the whole new
// generation. Concurrent loads of one dataset share a single fetch.
type Cache struct {
	slots        map[ID]*slot
	fetcher      source.Fetcher
	now          func() time.Time
	retryBackoff time.Duration
	logger       logger.Logger
	group        singleflight.Group
}

var _ Store = (*Cache)(nil)

// NewCache creates a cache for the known datasets.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		slots:        make(map[ID]*slot, len(IDs())),
		fetcher:      source.NewClient(),
		now:          time.Now,
		retryBackoff: defaultRetryBackoff,
	}
	for _, id := range IDs() {
		c.slots[id] = &slot{id: id, ttl: defaultTTL}
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("cache")
	}
	return c
}

// Configured reports whether id has a source locator.
func (c *Cache) Configured(id ID) bool {
	s, ok := c.slots[id]
	return ok && s.configured()
}

// Ensure returns the current generation of id, loading it first when the
// cache is empty or the generation has expired. A failed reload keeps
// serving the previous non-empty generation.
func (c *Cache) Ensure(ctx context.Context, id ID) (*Dataset, error) {
	s, err := c.slot(id)
	if err != nil {
		return nil, err
	}
	if !s.configured() {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, id)
	}

	cur := s.current.Load()
	if cur != nil && !c.expired(s, cur) {
		return cur, nil
	}
	if cur.Len() > 0 && c.backingOff(s) {
		metrics.RecordStaleServe(string(id))
		return cur, nil
	}

	ds, err := c.load(ctx, s)
	if err == nil {
		return ds, nil
	}
	if cur.Len() > 0 {
		c.logger.Warn(ctx, "refresh failed; serving cached generation",
			logger.String("dataset", string(id)),
			logger.String("generation", cur.Generation),
			logger.Time("loaded_at", cur.LoadedAt),
			logger.Error(err),
		)
		metrics.RecordStaleServe(string(id))
		return cur, nil
	}
	return nil, err
}

// Refresh fetches id regardless of TTL.
func (c *Cache) Refresh(ctx context.Context, id ID) Outcome {
	s, err := c.slot(id)
	if err != nil {
		return Outcome{Dataset: id, Kind: Failed, Err: err}
	}
	if !s.configured() {
		return Outcome{Dataset: id, Kind: NotConfigured, Err: ErrNotConfigured}
	}

	prev := s.current.Load()
	ds, err := c.load(ctx, s)
	switch {
	case err == nil:
		return Outcome{Dataset: id, Kind: Reloaded, Rows: ds.Len(), LoadedAt: ds.LoadedAt, Generation: ds.Generation}
	case prev.Len() > 0:
		c.logger.Warn(ctx, "forced refresh failed; keeping cached generation",
			logger.String("dataset", string(id)),
			logger.String("generation", prev.Generation),
			logger.Error(err),
		)
		return Outcome{Dataset: id, Kind: KeptStale, Rows: prev.Len(), LoadedAt: prev.LoadedAt, Generation: prev.Generation, Err: err}
	default:
		return Outcome{Dataset: id, Kind: Failed, Err: err}
	}
}

// RefreshAll refreshes every dataset concurrently. Outcomes come back in
// IDs() order.
func (c *Cache) RefreshAll(ctx context.Context) []Outcome {
	ids := IDs()
	out := make([]Outcome, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = c.Refresh(ctx, id)
		}()
	}
	wg.Wait()
	return out
}

// Warm loads every configured dataset once, logging failures.
func (c *Cache) Warm(ctx context.Context) {
	for _, id := range IDs() {
		if !c.Configured(id) {
			c.logger.Warn(ctx, "dataset source not configured", logger.String("dataset", string(id)))
			continue
		}
		if _, err := c.Ensure(ctx, id); err != nil {
			c.logger.Error(ctx, "initial dataset load failed", logger.String("dataset", string(id)), logger.Error(err))
		}
	}
}

// Status reports every dataset slot.
func (c *Cache) Status(_ context.Context) []Status {
	ids := IDs()
	out := make([]Status, 0, len(ids))
	for _, id := range ids {
		s := c.slots[id]
		st := Status{Dataset: id, Configured: s.configured(), State: StateEmpty}
		_, lastErr := s.failure()
		if lastErr != nil {
			st.LastError = lastErr.Error()
		}
		if cur := s.current.Load(); cur != nil {
			st.Rows = cur.Len()
			st.LoadedAt = cur.LoadedAt
			st.Generation = cur.Generation
			st.State = StateReady
			if lastErr != nil || c.expired(s, cur) {
				st.State = StateStale
			}
		}
		out = append(out, st)
	}
	return out
}

func (c *Cache) slot(id ID) (*slot, error) {
	s, ok := c.slots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, id)
	}
	return s, nil
}

func (c *Cache) expired(s *slot, ds *Dataset) bool {
	return s.ttl > 0 && c.now().Sub(ds.LoadedAt) >= s.ttl
}

func (c *Cache) backingOff(s *slot) bool {
	at, _ := s.failure()
	return !at.IsZero() && c.retryBackoff > 0 && c.now().Sub(at) < c.retryBackoff
}

// load fetches, parses and publishes a new generation. Callers racing on
// the same dataset share one fetch. The fetch is detached from caller
// cancellation and bounded by the fetcher's own timeout.
func (c *Cache) load(ctx context.Context, s *slot) (*Dataset, error) {
	v, err, shared := c.group.Do(string(s.id), func() (any, error) {
		return c.fetchAndPublish(context.WithoutCancel(ctx), s)
	})
	if shared {
		metrics.RecordCoalescedRefresh(string(s.id))
	}
	if err != nil {
		return nil, err
	}
	return v.(*Dataset), nil
}

func (c *Cache) fetchAndPublish(ctx context.Context, s *slot) (*Dataset, error) {
	start := c.now()
	ds, err := c.fetch(ctx, s)
	elapsed := c.now().Sub(start).Seconds()
	if err != nil {
		metrics.RecordFetch(string(s.id), "failed", elapsed)
		s.recordFailure(err, c.now())
		c.logger.Error(ctx, "dataset fetch failed",
			logger.String("dataset", string(s.id)),
			logger.Error(err),
		)
		return nil, err
	}

	s.current.Store(ds)
	s.clearFailure()
	metrics.RecordFetch(string(s.id), "reloaded", elapsed)
	metrics.UpdateDatasetLoaded(string(s.id), ds.Len(), ds.LoadedAt.Unix())
	for _, f := range columns.All() {
		if !ds.Resolution.Has(f) {
			c.logger.Debug(ctx, "field not present in header",
				logger.String("dataset", string(s.id)),
				logger.String("field", string(f)),
			)
		}
	}
	c.logger.Info(ctx, "dataset loaded",
		logger.String("dataset", string(s.id)),
		logger.Int("rows", ds.Len()),
		logger.Int("columns", len(ds.Headers)),
		logger.String("generation", ds.Generation),
		logger.Float64("seconds", elapsed),
	)
	return ds, nil
}

func (c *Cache) fetch(ctx context.Context, s *slot) (*Dataset, error) {
	raw, err := c.fetcher.Fetch(ctx, s.locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, s.id, err)
	}
	tbl, err := table.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, s.id, err)
	}
	return &Dataset{
		ID:         s.id,
		Source:     s.locator,
		Headers:    tbl.Headers,
		Records:    tbl.Records(),
		Resolution: columns.NewResolution(tbl.Headers),
		LoadedAt:   c.now(),
		Generation: uuid.NewString(),
	}, nil
}

// IsNotConfigured reports whether err stems from a missing locator.
func IsNotConfigured(err error) bool { return errors.Is(err, ErrNotConfigured) }
