// Package service answers bot commands from the cached spreadsheet
// datasets. Every operation returns a transport-neutral *Result or a
// structured *Error.
package service

import (
	"context"
	"strings"

	"github.com/okian/scrollstats/internal/adapters/repository"
	"github.com/okian/scrollstats/internal/domain/columns"
	"github.com/okian/scrollstats/internal/domain/stats"
	"github.com/okian/scrollstats/pkg/logger"
	"github.com/okian/scrollstats/pkg/metrics"
)

const (
	defaultMinGames     = 5
	defaultLimit        = 10
	defaultCompactLimit = 3
	maxChoices          = 25
)

// Service implements the bot commands.
type Service struct {
	store repository.Store

	minGames     int
	limit        int
	compactLimit int
	admins       map[string]struct{}
	thresholds   stats.Thresholds

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMinGames sets the inclusive sample-size threshold.
func WithMinGames(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.minGames = n
		}
	}
}

// WithLimits sets the default and compact result sizes.
func WithLimits(limit, compact int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.limit = limit
		}
		if compact > 0 {
			s.compactLimit = compact
		}
	}
}

// WithAdmins sets the caller ids allowed to run admin commands.
func WithAdmins(ids ...string) Option {
	return func(s *Service) {
		for _, id := range ids {
			if id = strings.TrimSpace(id); id != "" {
				s.admins[id] = struct{}{}
			}
		}
	}
}

// WithThresholds sets the Elo dispersion thresholds.
func WithThresholds(t stats.Thresholds) Option {
	return func(s *Service) {
		s.thresholds = t
	}
}

// New constructs a Service reading from store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		minGames:     defaultMinGames,
		limit:        defaultLimit,
		compactLimit: defaultCompactLimit,
		admins:       make(map[string]struct{}),
		thresholds:   stats.DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// MinGames returns the active sample-size threshold.
func (s *Service) MinGames() int { return s.minGames }

// IsAdmin reports whether caller may run admin commands.
func (s *Service) IsAdmin(caller string) bool {
	_, ok := s.admins[strings.TrimSpace(caller)]
	return ok
}

// dataset loads id and maps failures onto command errors.
func (s *Service) dataset(ctx context.Context, id repository.ID) (*repository.Dataset, error) {
	ds, err := s.store.Ensure(ctx, id)
	if err != nil {
		s.logger.Warn(ctx, "dataset unavailable",
			logger.String("dataset", string(id)),
			logger.Error(err),
		)
		return nil, datasetError(id, err)
	}
	return ds, nil
}

// require logs and counts fields a command depends on that the current
// header does not carry. The command still runs and degrades.
func (s *Service) require(ctx context.Context, ds *repository.Dataset, fields ...columns.Field) {
	for _, f := range ds.Resolution.Missing(fields...) {
		metrics.RecordFieldUnavailable(string(ds.ID), string(f))
		s.logger.Warn(ctx, "field unavailable in current header",
			logger.String("dataset", string(ds.ID)),
			logger.String("field", string(f)),
			logger.String("generation", ds.Generation),
		)
	}
}

func (s *Service) meta(ds *repository.Dataset) Meta {
	return Meta{
		Dataset:          string(ds.ID),
		DatasetTimestamp: ds.LoadedAt,
		Generation:       ds.Generation,
		MinGames:         s.minGames,
	}
}
