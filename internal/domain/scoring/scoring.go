// Package scoring combines the calendar, volatility and earnings checks into
// a single weighted catalyst score.
package scoring

import (
	"fmt"
	"time"

	"github.com/okian/catalyst/internal/domain/calendar"
	"github.com/okian/catalyst/internal/domain/earnings"
	"github.com/okian/catalyst/internal/domain/volatility"
)

// Check weights. They add up to MaxScore.
const (
	WeightFedMeeting   = 2
	WeightVolatility   = 2
	WeightEarnings     = 3
	WeightEconomicData = 2

	MaxScore = WeightFedMeeting + WeightVolatility + WeightEarnings + WeightEconomicData
)

// Conviction thresholds.
const (
	mediumFrom = 4
	highFrom   = 7
)

// Breakdown holds the outcome of each check.
type Breakdown struct {
	FedMeeting   bool `json:"fed_meeting"`
	VIXLow       bool `json:"vix_low"`
	Earnings     bool `json:"earnings"`
	EconomicData bool `json:"economic_data"`
}

// Compute returns the weighted sum of the checks that passed.
func Compute(b Breakdown) int {
	score := 0
	if b.FedMeeting {
		score += WeightFedMeeting
	}
	if b.VIXLow {
		score += WeightVolatility
	}
	if b.Earnings {
		score += WeightEarnings
	}
	if b.EconomicData {
		score += WeightEconomicData
	}
	return score
}

// Conviction is the coarse bucket a score falls into.
type Conviction string

// Conviction levels.
const (
	ConvictionLow    Conviction = "LOW"
	ConvictionMedium Conviction = "MEDIUM"
	ConvictionHigh   Conviction = "HIGH"
)

// ConvictionFor maps a score to its conviction: below 4 LOW, 4 to 6 MEDIUM,
// 7 and above HIGH.
func ConvictionFor(score int) Conviction {
	switch {
	case score >= highFrom:
		return ConvictionHigh
	case score >= mediumFrom:
		return ConvictionMedium
	default:
		return ConvictionLow
	}
}

// Status tells whether a score could be computed.
type Status string

// Result statuses.
const (
	StatusComputed      Status = "computed"
	StatusIndeterminate Status = "indeterminate"
)

// Details carries the inputs behind a breakdown for display and diagnostics.
type Details struct {
	Volatility      *volatility.Reading `json:"volatility,omitempty"`
	VolatilityLevel string              `json:"volatility_level,omitempty"`
	EarningsMatches []earnings.Match    `json:"earnings_matches,omitempty"`
	FailedSymbols   []string            `json:"failed_symbols,omitempty"`
	CPI             bool                `json:"cpi"`
	NFP             bool                `json:"nfp"`
	CPIDates        []time.Time         `json:"cpi_dates,omitempty"`
	NFPDates        []time.Time         `json:"nfp_dates,omitempty"`
	Notes           []string            `json:"notes,omitempty"`
}

// Result is the score for one date. When Status is indeterminate, Score and
// Conviction are unset and Err holds the cause.
type Result struct {
	Date       time.Time  `json:"date"`
	Status     Status     `json:"status"`
	Score      int        `json:"score"`
	Conviction Conviction `json:"conviction,omitempty"`
	Breakdown  Breakdown  `json:"breakdown"`
	Details    Details    `json:"details"`
	Err        error      `json:"-"`
}

// Computed reports whether the score is usable.
func (r Result) Computed() bool { return r.Status == StatusComputed }

func (r Result) String() string {
	if !r.Computed() {
		return fmt.Sprintf("%s: score unavailable (%v)", calendar.Format(r.Date), r.Err)
	}
	return fmt.Sprintf("%s: %d/%d %s", calendar.Format(r.Date), r.Score, MaxScore, r.Conviction)
}
