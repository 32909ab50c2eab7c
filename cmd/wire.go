package main

import (
	"context"
	"time"

	"github.com/okian/catalyst/internal/adapters/marketdata"
	service "github.com/okian/catalyst/internal/app"
	"github.com/okian/catalyst/internal/config"
	"github.com/okian/catalyst/internal/domain/earnings"
	"github.com/okian/catalyst/internal/domain/scoring"
	"github.com/okian/catalyst/pkg/logger"
)

// build wires the provider clients, caches, checks and service from cfg.
func build(cfg *config.Config) (*service.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	cal, err := cfg.Calendar()
	if err != nil {
		return nil, err
	}

	client := marketdata.NewClient(
		marketdata.WithBaseURL(cfg.ProviderBaseURL),
		marketdata.WithTimeout(cfg.ProviderTimeout),
		marketdata.WithRetries(cfg.ProviderRetries),
		marketdata.WithBackoff(cfg.ProviderBackoff),
		marketdata.WithLocation(loc),
		marketdata.WithLogger(logger.Named("marketdata")),
	)

	vix := marketdata.NewVolatilityFeed(client,
		marketdata.WithSymbol(cfg.VIXSymbol),
		marketdata.WithLookbackDays(cfg.VIXHistoryDays),
		marketdata.WithTTL(cfg.SeriesCacheTTL),
	)
	if cfg.EarningsAPIKey == "" {
		logger.Named("wire").Warn(context.Background(), "earnings_api_key is empty; earnings lookups will fail")
	}
	earningsCal := marketdata.NewEarningsCalendar(cfg.EarningsAPIKey,
		marketdata.WithBaseURL(cfg.EarningsBaseURL),
		marketdata.WithTimeout(cfg.ProviderTimeout),
		marketdata.WithRetries(cfg.ProviderRetries),
		marketdata.WithBackoff(cfg.ProviderBackoff),
		marketdata.WithLogger(logger.Named("earnings_calendar")),
	)
	earningsFeed := marketdata.NewEarningsFeed(earningsCal,
		marketdata.WithTTL(cfg.EarningsCacheTTL),
	)

	checker := earnings.NewChecker(earningsFeed,
		earnings.WithSymbols(cfg.Watchlist),
		earnings.WithWindowDays(cfg.EarningsWindowDays),
		// one lookup may span every retry of the client
		earnings.WithTimeout(cfg.ProviderTimeout*time.Duration(cfg.ProviderRetries+1)),
		earnings.WithConcurrency(cfg.LookupConcurrency),
	)

	engine := scoring.NewEngine(vix, checker,
		scoring.WithCalendar(cal),
		scoring.WithThreshold(cfg.VIXThreshold),
		scoring.WithEconomicWindow(cfg.EconomicWindowDays),
	)

	return service.New(engine,
		service.WithVolatilityFeed(vix),
		service.WithCalendar(cal),
		service.WithLocation(loc),
		service.WithThreshold(cfg.VIXThreshold),
		service.WithLookaheadDays(cfg.LookaheadDays),
		service.WithWeeklyDays(cfg.WeeklyDays),
		service.WithRefreshInterval(cfg.RefreshInterval),
		service.WithLogger(logger.Named("service")),
	), nil
}
