package main

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/scrollstats/internal/adapters/repository"
	"github.com/okian/scrollstats/internal/adapters/source"
	service "github.com/okian/scrollstats/internal/app"
	"github.com/okian/scrollstats/internal/config"
	"github.com/okian/scrollstats/internal/domain/stats"
	"github.com/okian/scrollstats/pkg/logger"
)

// components is everything a subcommand may need.
type components struct {
	cfg    *config.Config
	cache  *repository.Cache
	svc    *service.Service
	logger logger.Logger
}

// bootstrap loads configuration, initializes logging to logOut and wires
// the cache and command service.
func bootstrap(ctx context.Context, logOut io.Writer) (*components, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(logOut)); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	for _, key := range cfg.MissingSources() {
		log.Warn(ctx, "data source not configured; commands using it will fail", logger.String("key", key))
	}

	cache := repository.NewCache(
		repository.WithFetcher(source.NewClient(source.WithTimeout(cfg.FetchTimeout()))),
		repository.WithTTL(cfg.CacheTTL()),
		repository.WithSource(repository.Warscroll, cfg.WarscrollURL),
		repository.WithSource(repository.Faction, cfg.FactionURL),
		repository.WithSource(repository.League, cfg.LeagueURL),
		repository.WithLogger(logger.Named("cache")),
	)

	svc := service.New(cache,
		service.WithLogger(logger.Named("service")),
		service.WithMinGames(cfg.MinGames),
		service.WithLimits(cfg.DefaultLimit, cfg.CompactLimit),
		service.WithAdmins(cfg.Admins()...),
		service.WithThresholds(stats.Thresholds{
			Baseline:      cfg.EloBaseline,
			SpecialistGap: cfg.EloSpecialistGap,
			Skew:          cfg.EloSkew,
			EvenBand:      cfg.EloEvenBand,
		}),
	)

	return &components{cfg: cfg, cache: cache, svc: svc, logger: log}, nil
}
