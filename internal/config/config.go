// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables on top.
// - Errors wrap this package's sentinel kinds.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/okian/catalyst/internal/domain/calendar"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Timezone decides what "today" means for the dashboard.
	Timezone string `koanf:"timezone"`

	// VIXSymbol is the volatility index fetched from the provider.
	VIXSymbol string `koanf:"vix_symbol"`

	// VIXThreshold is the level the as-of close must stay strictly under.
	VIXThreshold float64 `koanf:"vix_threshold"`

	// VIXHistoryDays is how much history the volatility feed keeps.
	VIXHistoryDays int `koanf:"vix_history_days"`

	// Watchlist are the tickers whose earnings count as catalysts.
	Watchlist []string `koanf:"watchlist"`

	EarningsWindowDays int `koanf:"earnings_window_days"`
	EconomicWindowDays int `koanf:"economic_window_days"`

	// Provider settings for Yahoo Finance.
	ProviderBaseURL   string        `koanf:"provider_base_url"`
	ProviderTimeout   time.Duration `koanf:"provider_timeout"`
	ProviderRetries   int           `koanf:"provider_retries"`
	ProviderBackoff   time.Duration `koanf:"provider_backoff"`
	LookupConcurrency int           `koanf:"lookup_concurrency"`

	// Earnings announcement history from Financial Modeling Prep. Without a
	// key every earnings lookup fails and the check awards no points.
	EarningsBaseURL string `koanf:"earnings_base_url"`
	EarningsAPIKey  string `koanf:"earnings_api_key"`

	SeriesCacheTTL   time.Duration `koanf:"series_cache_ttl"`
	EarningsCacheTTL time.Duration `koanf:"earnings_cache_ttl"`

	// RefreshInterval schedules background VIX refreshes; 0 disables them.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// LookaheadDays bounds the next high-risk day search.
	LookaheadDays int `koanf:"lookahead_days"`

	// WeeklyDays is the number of weekdays on the weekly view.
	WeeklyDays int `koanf:"weekly_days"`

	// Calendars extends the built-in tables: category -> year -> dates.
	Calendars map[string]map[string][]string `koanf:"calendars"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		Timezone:           "America/New_York",
		VIXSymbol:          "^VIX",
		VIXThreshold:       18.0,
		VIXHistoryDays:     730,
		Watchlist:          []string{"AAPL", "MSFT", "GOOGL", "META", "AMZN", "NVDA"},
		EarningsWindowDays: 5,
		EconomicWindowDays: 5,
		ProviderBaseURL:    "https://query1.finance.yahoo.com",
		ProviderTimeout:    10 * time.Second,
		ProviderRetries:    2,
		ProviderBackoff:    500 * time.Millisecond,
		LookupConcurrency:  6,
		EarningsBaseURL:    "https://financialmodelingprep.com/api/v3",
		SeriesCacheTTL:     15 * time.Minute,
		EarningsCacheTTL:   6 * time.Hour,
		RefreshInterval:    15 * time.Minute,
		LookaheadDays:      30,
		WeeklyDays:         7,
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Calendar returns the built-in tables extended with Calendars.
func (c *Config) Calendar() (*calendar.Calendar, error) {
	cal := calendar.New()
	for cat, years := range c.Calendars {
		for y, dates := range years {
			year, err := strconv.Atoi(y)
			if err != nil {
				return nil, fmt.Errorf("%w: calendars.%s: year %q", ErrInvalidConfig, cat, y)
			}
			if err := cal.AddStrings(calendar.Category(cat), year, dates); err != nil {
				return nil, fmt.Errorf("%w: calendars.%s.%s: %w", ErrInvalidConfig, cat, y, err)
			}
		}
	}
	return cal, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.VIXSymbol == "":
		return fmt.Errorf("%w: vix_symbol must not be empty", ErrInvalidConfig)
	case c.VIXThreshold <= 0:
		return fmt.Errorf("%w: vix_threshold must be positive", ErrInvalidConfig)
	case len(c.Watchlist) == 0:
		return fmt.Errorf("%w: watchlist must not be empty", ErrInvalidConfig)
	case c.VIXHistoryDays <= 0:
		return fmt.Errorf("%w: vix_history_days must be positive", ErrInvalidConfig)
	case c.EarningsWindowDays < 0 || c.EconomicWindowDays < 0:
		return fmt.Errorf("%w: window days must not be negative", ErrInvalidConfig)
	case c.EarningsBaseURL == "":
		return fmt.Errorf("%w: earnings_base_url must not be empty", ErrInvalidConfig)
	case c.ProviderTimeout <= 0:
		return fmt.Errorf("%w: provider_timeout must be positive", ErrInvalidConfig)
	case c.ProviderRetries < 0:
		return fmt.Errorf("%w: provider_retries must not be negative", ErrInvalidConfig)
	case c.LookupConcurrency <= 0:
		return fmt.Errorf("%w: lookup_concurrency must be positive", ErrInvalidConfig)
	case c.RefreshInterval < 0:
		return fmt.Errorf("%w: refresh_interval must not be negative", ErrInvalidConfig)
	case c.LookaheadDays <= 0 || c.WeeklyDays <= 0:
		return fmt.Errorf("%w: lookahead_days and weekly_days must be positive", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Calendar(); err != nil {
		return err
	}
	return nil
}
