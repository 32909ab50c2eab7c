package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/catalyst/internal/domain/calendar"
	"github.com/okian/catalyst/internal/domain/earnings"
	"github.com/okian/catalyst/internal/domain/volatility"
	"github.com/okian/catalyst/pkg/logger"
	"github.com/okian/catalyst/pkg/metrics"
)

// VolatilitySource supplies the daily series of the volatility index.
type VolatilitySource interface {
	Series(ctx context.Context) (volatility.Series, error)
}

// EarningsChecker evaluates the watch-list against a target date.
type EarningsChecker interface {
	Check(ctx context.Context, target time.Time) earnings.Result
}

// Engine computes catalyst scores.
type Engine struct {
	calendar       *calendar.Calendar
	volatility     VolatilitySource
	earnings       EarningsChecker
	threshold      float64
	economicWindow int
	logger         logger.Logger
}

// NewEngine creates a new engine with configuration options. A nil earnings
// checker disables the earnings check.
func NewEngine(vol VolatilitySource, earn EarningsChecker, opts ...Option) *Engine {
	e := &Engine{
		calendar:       calendar.New(),
		volatility:     vol,
		earnings:       earn,
		threshold:      volatility.DefaultThreshold,
		economicWindow: calendar.DefaultWindowDays,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("scoring")
	}
	return e
}

// ScoreString parses a YYYY-MM-DD date and scores it.
func (e *Engine) ScoreString(ctx context.Context, date string) (Result, error) {
	d, err := calendar.ParseDate(date)
	if err != nil {
		return Result{}, err
	}
	return e.Score(ctx, d), nil
}

// Score runs every check for date. A missing volatility reading makes the
// result indeterminate; other data gaps are recorded in Details.Notes.
func (e *Engine) Score(ctx context.Context, date time.Time) Result {
	start := time.Now()
	res := Result{Date: calendar.Day(date)}
	defer func() {
		metrics.RecordScoreComputation(string(res.Status))
		metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	fed, err := e.calendar.Contains(calendar.FedMeeting, res.Date)
	if errors.Is(err, calendar.ErrNoData) {
		res.Details.Notes = append(res.Details.Notes,
			fmt.Sprintf("no Fed meeting table for %d", res.Date.Year()))
	}
	res.Breakdown.FedMeeting = fed

	econ := e.calendar.CheckEconomic(res.Date, e.economicWindow)
	if !econ.Covered {
		res.Details.Notes = append(res.Details.Notes,
			fmt.Sprintf("no CPI/NFP tables for %d", res.Date.Year()))
	}
	res.Breakdown.EconomicData = econ.Any()
	res.Details.CPI, res.Details.NFP = econ.CPI, econ.NFP
	res.Details.CPIDates, res.Details.NFPDates = econ.CPIDates, econ.NFPDates

	reading, err := e.readVolatility(ctx, res.Date)
	if err != nil {
		res.Status = StatusIndeterminate
		res.Err = fmt.Errorf("%w: %w", ErrVolatilityUnavailable, err)
		metrics.RecordErrorByComponent("scoring", "volatility_unavailable")
		e.logger.Warn(ctx, "score indeterminate",
			logger.String("date", calendar.Format(res.Date)),
			logger.Error(err),
		)
		return res
	}
	res.Breakdown.VIXLow = reading.Below
	res.Details.Volatility = &reading
	res.Details.VolatilityLevel = volatility.Classify(reading.Observation.Close)

	if e.earnings != nil {
		er := e.earnings.Check(ctx, res.Date)
		res.Breakdown.Earnings = er.Overlap
		res.Details.EarningsMatches = er.Matches
		res.Details.FailedSymbols = er.Failed()
	}

	res.Status = StatusComputed
	res.Score = Compute(res.Breakdown)
	res.Conviction = ConvictionFor(res.Score)
	metrics.RecordScoreValue(res.Score)

	e.logger.Debug(ctx, "score computed",
		logger.String("date", calendar.Format(res.Date)),
		logger.Int("score", res.Score),
		logger.String("conviction", string(res.Conviction)),
		logger.Any("breakdown", res.Breakdown),
	)
	return res
}

func (e *Engine) readVolatility(ctx context.Context, date time.Time) (volatility.Reading, error) {
	if e.volatility == nil {
		return volatility.Reading{}, errors.New("no volatility source configured")
	}
	series, err := e.volatility.Series(ctx)
	if err != nil {
		return volatility.Reading{}, err
	}
	return volatility.CheckBelow(series, date, e.threshold)
}
