package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

const envPrefix = "SCROLLSTATS_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. variables from ./.env (never overriding the real environment)
//  3. file (YAML, or TOML for a .toml path) if SCROLLSTATS_CONFIG is set
//  4. env (prefix SCROLLSTATS_)
func Load(_ context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: .env: %w", ErrLoadConfig, err)
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// SCROLLSTATS_MIN_GAMES -> min_games (flat keys, underscores kept).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would make the service misbehave.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MinGames < 0:
		return fmt.Errorf("%w: min_games must not be negative", ErrInvalidConfig)
	case c.CacheTTLSeconds < 0:
		return fmt.Errorf("%w: cache_ttl_seconds must not be negative", ErrInvalidConfig)
	case c.DefaultLimit < 1 || c.CompactLimit < 1:
		return fmt.Errorf("%w: limits must be positive", ErrInvalidConfig)
	case c.FetchTimeoutMS < 0:
		return fmt.Errorf("%w: fetch_timeout_ms must not be negative", ErrInvalidConfig)
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return fmt.Errorf("%w: refresh_schedule: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}
