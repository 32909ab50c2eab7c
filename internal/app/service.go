// Package service assembles the scoring engine, the volatility feed and the
// calendar into the views served by the HTTP API, the site and the CLI.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/okian/catalyst/internal/domain/calendar"
	"github.com/okian/catalyst/internal/domain/scoring"
	"github.com/okian/catalyst/internal/domain/volatility"
	"github.com/okian/catalyst/pkg/logger"
	"github.com/okian/catalyst/pkg/metrics"
)

// Defaults for the presentation views.
const (
	DefaultLookaheadDays = 30
	DefaultWeeklyDays    = 7
	defaultParallelism   = 4
)

// Scorer computes the catalyst score for one day.
type Scorer interface {
	Score(ctx context.Context, date time.Time) scoring.Result
}

// VolatilityFeed serves the latest index close and refreshes its cache.
type VolatilityFeed interface {
	Latest(ctx context.Context) (volatility.Observation, error)
	Refresh(ctx context.Context) error
}

// Service implements the dependencies of the HTTP API and the CLI.
type Service struct {
	mu sync.RWMutex

	// Core components
	scorer   Scorer
	feed     VolatilityFeed
	calendar *calendar.Calendar

	// Configuration
	location        *time.Location
	threshold       float64
	lookaheadDays   int
	weeklyDays      int
	parallelism     int
	refreshInterval time.Duration
	now             func() time.Time

	// State
	started     bool
	scheduler   *gocron.Scheduler
	lastRefresh time.Time
	refreshErr  error
	refreshes   int

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCalendar sets the tables used for the Fed calendar view.
func WithCalendar(cal *calendar.Calendar) Option {
	return func(s *Service) {
		if cal != nil {
			s.calendar = cal
		}
	}
}

// WithVolatilityFeed sets the feed behind the VIX widget and the refresh job.
func WithVolatilityFeed(feed VolatilityFeed) Option {
	return func(s *Service) {
		s.feed = feed
	}
}

// WithLocation sets the zone that decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithThreshold sets the VIX level shown in the catalyst label.
func WithThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.threshold = threshold
		}
	}
}

// WithLookaheadDays bounds the next high-risk day search.
func WithLookaheadDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.lookaheadDays = days
		}
	}
}

// WithWeeklyDays sets how many weekdays the weekly view shows.
func WithWeeklyDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.weeklyDays = days
		}
	}
}

// WithParallelism caps how many days are scored at once.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithRefreshInterval schedules background feed refreshes. Zero disables them.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service around scorer.
func New(scorer Scorer, opts ...Option) *Service {
	s := &Service{
		scorer:        scorer,
		calendar:      calendar.New(),
		location:      time.UTC,
		threshold:     volatility.DefaultThreshold,
		lookaheadDays: DefaultLookaheadDays,
		weeklyDays:    DefaultWeeklyDays,
		parallelism:   defaultParallelism,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Today returns the current calendar day in the configured zone.
func (s *Service) Today() time.Time {
	return calendar.Today(s.now(), s.location)
}

// Start schedules the background refresh job. The first run happens
// immediately so the cache is warm before traffic arrives.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.feed != nil && s.refreshInterval > 0 {
		sched := gocron.NewScheduler(time.UTC)
		sched.SingletonModeAll()
		// detached: the job outlives the caller's context
		jobCtx := context.WithoutCancel(ctx)
		if _, err := sched.Every(s.refreshInterval).Do(s.refresh, jobCtx); err != nil {
			return err
		}
		sched.StartAsync()
		s.scheduler = sched
	}

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Duration("refreshInterval", s.refreshInterval),
		logger.Int("lookaheadDays", s.lookaheadDays),
		logger.Int("weeklyDays", s.weeklyDays),
	)
	return nil
}

// Stop halts the refresh job.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if s.scheduler != nil {
		s.scheduler.Stop()
		s.scheduler = nil
	}

	s.started = false
	s.logger.Info(context.Background(), "service stopped")
}

func (s *Service) refresh(ctx context.Context) {
	err := s.feed.Refresh(ctx)

	s.mu.Lock()
	s.refreshes++
	s.refreshErr = err
	if err == nil {
		s.lastRefresh = s.now()
	}
	s.mu.Unlock()

	if err != nil {
		metrics.RecordErrorByComponent("service", "refresh")
		s.logger.Warn(ctx, "volatility refresh failed", logger.Error(err))
		return
	}
	s.logger.Debug(ctx, "volatility refreshed")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	years := s.calendar.Years(calendar.FedMeeting)
	stats := map[string]interface{}{
		"started":         s.started,
		"refreshInterval": s.refreshInterval.String(),
		"refreshes":       s.refreshes,
		"lookaheadDays":   s.lookaheadDays,
		"weeklyDays":      s.weeklyDays,
		"timezone":        s.location.String(),
		"calendarYears":   years,
	}
	if !s.lastRefresh.IsZero() {
		stats["lastRefresh"] = s.lastRefresh.UTC().Format(time.RFC3339)
	}
	if s.refreshErr != nil {
		stats["lastRefreshError"] = s.refreshErr.Error()
	}
	return stats
}
