package scoring

import (
	"github.com/okian/catalyst/internal/domain/calendar"
	"github.com/okian/catalyst/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCalendar replaces the built-in calendar tables.
func WithCalendar(cal *calendar.Calendar) Option {
	return func(e *Engine) {
		if cal != nil {
			e.calendar = cal
		}
	}
}

// WithThreshold sets the volatility level the as-of close must stay under.
func WithThreshold(threshold float64) Option {
	return func(e *Engine) {
		if threshold > 0 {
			e.threshold = threshold
		}
	}
}

// WithEconomicWindow sets the CPI/NFP proximity window in days.
func WithEconomicWindow(days int) Option {
	return func(e *Engine) {
		if days >= 0 {
			e.economicWindow = days
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
