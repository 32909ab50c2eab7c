package marketdata

import (
	"context"
	"time"

	"github.com/okian/catalyst/internal/domain/volatility"
	"github.com/okian/catalyst/pkg/logger"
	"github.com/okian/catalyst/pkg/metrics"
)

// Default feed configuration constants.
const (
	DefaultVolatilitySymbol = "^VIX"
	DefaultLookbackDays     = 730
	defaultSeriesTTL        = 15 * time.Minute
	defaultEarningsTTL      = 6 * time.Hour
)

// HistorySource loads a daily close series.
type HistorySource interface {
	History(ctx context.Context, symbol string, from, to time.Time) (volatility.Series, error)
}

// EarningsSource loads the earnings dates of a symbol.
type EarningsSource interface {
	EarningsDates(ctx context.Context, symbol string) ([]time.Time, error)
}

type feedOptions struct {
	symbol       string
	lookbackDays int
	ttl          time.Duration
	now          func() time.Time
	logger       logger.Logger
}

// FeedOption configures a VolatilityFeed or EarningsFeed.
type FeedOption func(*feedOptions)

// WithSymbol sets the volatility index symbol.
func WithSymbol(symbol string) FeedOption {
	return func(o *feedOptions) {
		if symbol != "" {
			o.symbol = symbol
		}
	}
}

// WithLookbackDays sets how much history the volatility feed loads.
func WithLookbackDays(days int) FeedOption {
	return func(o *feedOptions) {
		if days > 0 {
			o.lookbackDays = days
		}
	}
}

// WithTTL sets how long loaded data stays fresh.
func WithTTL(ttl time.Duration) FeedOption {
	return func(o *feedOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) FeedOption {
	return func(o *feedOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithFeedLogger sets a custom logger.
func WithFeedLogger(l logger.Logger) FeedOption {
	return func(o *feedOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func newFeedOptions(ttl time.Duration, opts []FeedOption) feedOptions {
	o := feedOptions{
		symbol:       DefaultVolatilitySymbol,
		lookbackDays: DefaultLookbackDays,
		ttl:          ttl,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("marketdata")
	}
	return o
}

// VolatilityFeed serves the cached daily series of the volatility index.
type VolatilityFeed struct {
	source HistorySource
	opts   feedOptions
	cache  *Cache[volatility.Series]
}

// NewVolatilityFeed creates a feed over source.
func NewVolatilityFeed(source HistorySource, opts ...FeedOption) *VolatilityFeed {
	o := newFeedOptions(defaultSeriesTTL, opts)
	c := NewCache[volatility.Series]("series", o.ttl)
	c.now = o.now
	return &VolatilityFeed{source: source, opts: o, cache: c}
}

// Symbol returns the index symbol.
func (f *VolatilityFeed) Symbol() string { return f.opts.symbol }

// Series returns the cached series, loading it on a miss.
func (f *VolatilityFeed) Series(ctx context.Context) (volatility.Series, error) {
	return f.cache.GetOrLoad(ctx, f.opts.symbol, f.load)
}

// Latest returns the most recent close.
func (f *VolatilityFeed) Latest(ctx context.Context) (volatility.Observation, error) {
	s, err := f.Series(ctx)
	if err != nil {
		return volatility.Observation{}, err
	}
	return s.Latest()
}

// Refresh reloads the series regardless of its age. On failure the previous
// value stays in place.
func (f *VolatilityFeed) Refresh(ctx context.Context) error {
	s, err := f.load(ctx)
	if err != nil {
		metrics.RecordSeriesRefresh("error")
		f.opts.logger.Warn(ctx, "volatility refresh failed",
			logger.String("symbol", f.opts.symbol),
			logger.Error(err),
		)
		return err
	}
	f.cache.Set(f.opts.symbol, s)
	metrics.RecordSeriesRefresh("ok")
	f.opts.logger.Debug(ctx, "volatility series refreshed",
		logger.String("symbol", f.opts.symbol),
		logger.Int("observations", s.Len()),
	)
	return nil
}

func (f *VolatilityFeed) load(ctx context.Context) (volatility.Series, error) {
	// period2 is exclusive upstream; reach into tomorrow to include today
	to := f.opts.now().Add(24 * time.Hour)
	from := to.AddDate(0, 0, -f.opts.lookbackDays)
	s, err := f.source.History(ctx, f.opts.symbol, from, to)
	if err != nil {
		return volatility.Series{}, err
	}
	if last, err := s.Latest(); err == nil {
		metrics.UpdateVolatilityLast(last.Close)
	}
	return s, nil
}

// EarningsFeed caches earnings dates per symbol.
type EarningsFeed struct {
	source EarningsSource
	cache  *Cache[[]time.Time]
}

// NewEarningsFeed creates a feed over source.
func NewEarningsFeed(source EarningsSource, opts ...FeedOption) *EarningsFeed {
	o := newFeedOptions(defaultEarningsTTL, opts)
	c := NewCache[[]time.Time]("earnings", o.ttl)
	c.now = o.now
	return &EarningsFeed{source: source, cache: c}
}

// EarningsDates returns the cached dates of symbol, loading them on a miss.
func (f *EarningsFeed) EarningsDates(ctx context.Context, symbol string) ([]time.Time, error) {
	return f.cache.GetOrLoad(ctx, symbol, func(ctx context.Context) ([]time.Time, error) {
		return f.source.EarningsDates(ctx, symbol)
	})
}
