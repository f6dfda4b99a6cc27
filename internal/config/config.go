// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Defaults live in New; Load layers file and environment on top.
//   - Source URLs are optional here; a missing URL is reported by the
//     dataset cache when that dataset is first used.
package config

import (
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr is the HTTP listen address for the command and health endpoints.
	// Callers are trusted as sent, so expose it beyond loopback only behind
	// a gateway that authenticates them.
	Addr string `koanf:"addr"`

	// Source locators (http(s) URL, file:// URL or plain path).
	WarscrollURL string `koanf:"warscroll_url"`
	FactionURL   string `koanf:"faction_url"`
	LeagueURL    string `koanf:"league_url"`

	// CacheTTLSeconds is the dataset TTL; 0 means refresh only on demand.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`
	// FetchTimeoutMS bounds one source fetch.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`
	// RefreshSchedule is a cron spec for background refreshes; empty disables it.
	RefreshSchedule string `koanf:"refresh_schedule"`

	// MinGames is the inclusive minimum sample size for any result row.
	MinGames int `koanf:"min_games"`
	// DefaultLimit and CompactLimit cap result sets.
	DefaultLimit int `koanf:"default_limit"`
	CompactLimit int `koanf:"compact_limit"`

	// AdminUsers is a comma separated list of caller ids allowed to refresh.
	AdminUsers string `koanf:"admin_users"`

	// Elo dispersion thresholds.
	EloBaseline      float64 `koanf:"elo_baseline"`
	EloSpecialistGap float64 `koanf:"elo_specialist_gap"`
	EloSkew          float64 `koanf:"elo_skew"`
	EloEvenBand      float64 `koanf:"elo_even_band"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             "127.0.0.1:9080",
		CacheTTLSeconds:  int((6 * time.Hour).Seconds()),
		FetchTimeoutMS:   15_000,
		MinGames:         5,
		DefaultLimit:     10,
		CompactLimit:     3,
		EloBaseline:      400,
		EloSpecialistGap: 100,
		EloSkew:          25,
		EloEvenBand:      10,
	}
}

// CacheTTL returns the TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// FetchTimeout returns the per-fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// Admins returns the parsed admin caller ids.
func (c *Config) Admins() []string {
	var out []string
	for _, id := range strings.Split(c.AdminUsers, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// MissingSources lists the dataset URL keys that are not set.
func (c *Config) MissingSources() []string {
	var missing []string
	if strings.TrimSpace(c.WarscrollURL) == "" {
		missing = append(missing, "warscroll_url")
	}
	if strings.TrimSpace(c.FactionURL) == "" {
		missing = append(missing, "faction_url")
	}
	if strings.TrimSpace(c.LeagueURL) == "" {
		missing = append(missing, "league_url")
	}
	return missing
}
