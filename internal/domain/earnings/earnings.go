// Package earnings checks whether any symbol on a watch-list reports earnings
// close to a target date.
package earnings

import (
	"context"
	"sort"
	"time"

	"github.com/okian/catalyst/internal/domain/calendar"
	"github.com/okian/catalyst/pkg/logger"
	"github.com/okian/catalyst/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Default checker configuration constants.
const (
	DefaultWindowDays  = 5
	defaultTimeout     = 10 * time.Second
	defaultConcurrency = 6
)

// DefaultWatchList is the large-cap tech basket tracked by default.
var DefaultWatchList = []string{"AAPL", "MSFT", "GOOGL", "META", "AMZN", "NVDA"}

// Provider returns the known earnings-announcement dates of a symbol. A nil
// slice with a nil error means the provider has no dates for it.
type Provider interface {
	EarningsDates(ctx context.Context, symbol string) ([]time.Time, error)
}

// Outcome classifies a single symbol lookup.
type Outcome string

// Lookup outcomes.
const (
	OutcomeData       Outcome = "data"
	OutcomeNoData     Outcome = "no_data"
	OutcomeFetchError Outcome = "fetch_error"
)

// Lookup is the per-symbol result of querying the provider.
type Lookup struct {
	Symbol  string      `json:"symbol"`
	Outcome Outcome     `json:"outcome"`
	Dates   []time.Time `json:"dates,omitempty"`
	Err     error       `json:"-"`
}

// Match is an earnings date inside the window.
type Match struct {
	Symbol    string    `json:"symbol"`
	Date      time.Time `json:"date"`
	DaysApart int       `json:"days_apart"`
}

// Result aggregates the lookups for one target date.
type Result struct {
	Overlap bool     `json:"overlap"`
	Matches []Match  `json:"matches,omitempty"`
	Lookups []Lookup `json:"lookups,omitempty"`
}

// Symbols returns the distinct matching symbols, closest first.
func (r Result) Symbols() []string {
	seen := make(map[string]bool, len(r.Matches))
	var out []string
	for _, m := range r.Matches {
		if !seen[m.Symbol] {
			seen[m.Symbol] = true
			out = append(out, m.Symbol)
		}
	}
	return out
}

// Failed returns the symbols whose lookup failed.
func (r Result) Failed() []string {
	var out []string
	for _, l := range r.Lookups {
		if l.Outcome == OutcomeFetchError {
			out = append(out, l.Symbol)
		}
	}
	return out
}

// Option applies a configuration option to the Checker.
type Option func(*Checker)

// WithSymbols replaces the watch-list.
func WithSymbols(symbols []string) Option {
	return func(c *Checker) {
		if len(symbols) > 0 {
			c.symbols = append([]string(nil), symbols...)
		}
	}
}

// WithWindowDays sets the proximity window in days (inclusive).
func WithWindowDays(days int) Option {
	return func(c *Checker) {
		if days >= 0 {
			c.window = days
		}
	}
}

// WithTimeout bounds every provider call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Checker) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithConcurrency bounds parallel provider calls.
func WithConcurrency(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// Checker runs the earnings overlap check.
type Checker struct {
	provider    Provider
	symbols     []string
	window      int
	timeout     time.Duration
	concurrency int
	logger      logger.Logger
}

// NewChecker creates a checker over provider with configuration options.
func NewChecker(provider Provider, opts ...Option) *Checker {
	c := &Checker{
		provider:    provider,
		symbols:     append([]string(nil), DefaultWatchList...),
		window:      DefaultWindowDays,
		timeout:     defaultTimeout,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("earnings")
	}
	return c
}

// Lookup queries every symbol in parallel. Each call gets its own timeout and
// a failure is recorded on its Lookup rather than aborting the others.
func (c *Checker) Lookup(ctx context.Context) []Lookup {
	out := make([]Lookup, len(c.symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, symbol := range c.symbols {
		g.Go(func() error {
			out[i] = c.lookupOne(gctx, symbol)
			// never cancel siblings
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Checker) lookupOne(ctx context.Context, symbol string) Lookup {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	dates, err := c.provider.EarningsDates(callCtx, symbol)
	l := Lookup{Symbol: symbol}
	switch {
	case err != nil:
		l.Outcome, l.Err = OutcomeFetchError, err
		c.logger.Warn(ctx, "earnings lookup failed",
			logger.String("symbol", symbol),
			logger.Error(err),
		)
	case len(dates) == 0:
		l.Outcome = OutcomeNoData
	default:
		l.Outcome, l.Dates = OutcomeData, dates
	}
	metrics.RecordEarningsLookup(string(l.Outcome))
	return l
}

// Check looks up every symbol and evaluates the overlap for target.
func (c *Checker) Check(ctx context.Context, target time.Time) Result {
	res := Overlap(target, c.Lookup(ctx), c.window)
	if res.Overlap {
		c.logger.Debug(ctx, "earnings overlap found",
			logger.String("date", calendar.Format(target)),
			logger.Any("symbols", res.Symbols()),
		)
	}
	return res
}

// Overlap evaluates already fetched lookups against target. A date counts
// when it is at most window days away, in either direction.
func Overlap(target time.Time, lookups []Lookup, window int) Result {
	res := Result{Lookups: lookups}
	for _, l := range lookups {
		for _, d := range l.Dates {
			apart := calendar.AbsDays(target, d)
			if apart <= window {
				res.Matches = append(res.Matches, Match{
					Symbol:    l.Symbol,
					Date:      calendar.Day(d),
					DaysApart: apart,
				})
			}
		}
	}
	sort.SliceStable(res.Matches, func(i, j int) bool {
		return res.Matches[i].DaysApart < res.Matches[j].DaysApart
	})
	res.Overlap = len(res.Matches) > 0
	return res
}
