// Package schedule refreshes the dataset cache on a cron schedule so users
// rarely wait on a fetch.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/scrollstats/internal/adapters/repository"
	"github.com/okian/scrollstats/pkg/logger"
	"github.com/okian/scrollstats/pkg/metrics"
)

// ErrInvalidSchedule wraps cron spec parse failures.
var ErrInvalidSchedule = errors.New("invalid refresh schedule")

// Run results.
const (
	ResultOK      = "ok"
	ResultPartial = "partial"
	ResultSkipped = "skipped"
)

// Refresher is the part of the cache the scheduler drives.
type Refresher interface {
	RefreshAll(ctx context.Context) []repository.Outcome
}

// Scheduler runs RefreshAll on a cron spec. Runs never overlap.
type Scheduler struct {
	spec    string
	target  Refresher
	cron    *cron.Cron
	running atomic.Bool
	logger  logger.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New validates spec (standard five fields or a descriptor such as
// "@every 30m") and builds a stopped scheduler.
func New(spec string, target Refresher, opts ...Option) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}
	s := &Scheduler{
		spec:   spec,
		target: target,
		cron:   cron.New(cron.WithParser(parser)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("schedule")
	}
	return s, nil
}

// Start begins firing runs with ctx and returns a stop function that waits
// for an in-flight run to finish.
func (s *Scheduler) Start(ctx context.Context) (func(), error) {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}
	s.cron.Start()
	s.logger.Info(ctx, "refresh scheduler started", logger.String("schedule", s.spec))

	return func() {
		<-s.cron.Stop().Done()
		s.logger.Info(context.Background(), "refresh scheduler stopped")
	}, nil
}

// RunOnce refreshes every dataset unless a run is already in progress and
// returns the run result.
func (s *Scheduler) RunOnce(ctx context.Context) string {
	if !s.running.CompareAndSwap(false, true) {
		metrics.RecordScheduledRefresh(ResultSkipped)
		s.logger.Warn(ctx, "previous scheduled refresh still running; skipping")
		return ResultSkipped
	}
	defer s.running.Store(false)

	start := time.Now()
	result := ResultOK
	for _, o := range s.target.RefreshAll(ctx) {
		if o.Kind == repository.KeptStale || o.Kind == repository.Failed {
			result = ResultPartial
			s.logger.Warn(ctx, "scheduled refresh failed for dataset",
				logger.String("dataset", string(o.Dataset)),
				logger.String("outcome", string(o.Kind)),
				logger.Error(o.Err),
			)
		}
	}
	metrics.RecordScheduledRefresh(result)
	s.logger.Info(ctx, "scheduled refresh finished",
		logger.String("result", result),
		logger.Duration("elapsed", time.Since(start)),
	)
	return result
}
