package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/catalyst/internal/domain/calendar"
	"github.com/okian/catalyst/internal/domain/scoring"
	"github.com/okian/catalyst/internal/domain/volatility"
	"github.com/okian/catalyst/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// fedEntryLeadDays is how far before a meeting the suggested entry falls.
const fedEntryLeadDays = 3

// RiskLevel is the display tier of a score.
type RiskLevel string

// Risk levels.
const (
	RiskHigh          RiskLevel = "HIGH"
	RiskModerate      RiskLevel = "MODERATE"
	RiskLow           RiskLevel = "LOW"
	RiskIndeterminate RiskLevel = "INDETERMINATE"
)

// Tier is the display copy for a risk level.
type Tier struct {
	Level       RiskLevel `json:"level"`
	Color       string    `json:"color"`
	Emoji       string    `json:"emoji"`
	Description string    `json:"description"`
}

// TierFor maps a result to its display tier. Indeterminate results never
// fall into LOW.
func TierFor(res scoring.Result) Tier {
	if !res.Computed() {
		return Tier{
			Level:       RiskIndeterminate,
			Color:       "#6c757d",
			Emoji:       "❔",
			Description: "Score unavailable - volatility data could not be loaded",
		}
	}
	switch res.Conviction {
	case scoring.ConvictionHigh:
		return Tier{
			Level:       RiskHigh,
			Color:       "#dc3545",
			Emoji:       "⚠️",
			Description: "Multiple catalysts present - expect significant market swings",
		}
	case scoring.ConvictionMedium:
		return Tier{
			Level:       RiskModerate,
			Color:       "#ffc107",
			Emoji:       "⚠️",
			Description: "Some catalysts present - potential for increased volatility",
		}
	default:
		return Tier{
			Level:       RiskLow,
			Color:       "#28a745",
			Emoji:       "✅",
			Description: "Few catalysts - relatively calm market expected",
		}
	}
}

// calendarEmoji is the compact marker used on the Fed calendar.
func calendarEmoji(level RiskLevel) string {
	switch level {
	case RiskHigh:
		return "🔥"
	case RiskModerate:
		return "⚠️"
	case RiskLow:
		return "💤"
	default:
		return "❔"
	}
}

// VIX is the volatility widget.
type VIX struct {
	Available bool      `json:"available"`
	Value     float64   `json:"value,omitempty"`
	Date      time.Time `json:"date,omitempty"`
	Status    string    `json:"status"`
}

// NextHighRisk points at the next day worth watching.
type NextHighRisk struct {
	// Type is "score" for a scored day and "fed" for the Fed fallback.
	Type     string    `json:"type"`
	Date     time.Time `json:"date"`
	DaysAway int       `json:"days_away"`
	Score    int       `json:"score,omitempty"`
	Label    string    `json:"label"`
}

// Dashboard is the single-day view. Score is nil when the day could not be
// scored; ScoreLabel carries the display text either way.
type Dashboard struct {
	Date         time.Time      `json:"date"`
	Score        *int           `json:"score"`
	ScoreLabel   string         `json:"score_label"`
	MaxScore     int            `json:"max_score"`
	RiskLevel    RiskLevel      `json:"risk_level"`
	Risk         Tier           `json:"risk"`
	VIX          VIX            `json:"vix"`
	Catalysts    []string       `json:"catalysts"`
	NextHighRisk *NextHighRisk  `json:"next_high_risk,omitempty"`
	Result       scoring.Result `json:"result"`
	Error        string         `json:"error,omitempty"`
}

// DayScore is one row of the weekly view.
type DayScore struct {
	Date    time.Time      `json:"date"`
	Weekday string         `json:"weekday"`
	Score   string         `json:"score"`
	Risk    Tier           `json:"risk"`
	Result  scoring.Result `json:"result"`
	Error   string         `json:"error,omitempty"`
}

// FedMeeting is one row of the Fed calendar.
type FedMeeting struct {
	Date           time.Time         `json:"date"`
	EntryDate      time.Time         `json:"entry_date"`
	DaysUntil      int               `json:"days_until"`
	DaysUntilEntry int               `json:"days_until_entry"`
	Score          string            `json:"score"`
	Level          RiskLevel         `json:"level"`
	Color          string            `json:"color"`
	Emoji          string            `json:"emoji"`
	Breakdown      scoring.Breakdown `json:"breakdown"`
	Error          string            `json:"error,omitempty"`
}

// ScoreLabel renders a score for display. Indeterminate results read
// "score unavailable", never 0.
func ScoreLabel(res scoring.Result) string {
	if !res.Computed() {
		return "score unavailable"
	}
	return fmt.Sprintf("%d/%d", res.Score, scoring.MaxScore)
}

// ScoreValue returns the numeric score, or nil when res is indeterminate.
func ScoreValue(res scoring.Result) *int {
	if !res.Computed() {
		return nil
	}
	score := res.Score
	return &score
}

func errString(res scoring.Result) string {
	if res.Err == nil {
		return ""
	}
	return res.Err.Error()
}

// Catalysts lists the dashboard labels for the checks that fired.
func (s *Service) Catalysts(res scoring.Result) []string {
	if !res.Computed() {
		return []string{"❔ Score unavailable"}
	}
	var out []string
	if res.Breakdown.FedMeeting {
		out = append(out, "🏛️ Federal Reserve Meeting")
	}
	if res.Breakdown.Earnings {
		out = append(out, "📊 Major Tech Earnings")
	}
	if res.Breakdown.EconomicData {
		out = append(out, "📈 Economic Data Release")
	}
	if res.Breakdown.VIXLow {
		out = append(out, fmt.Sprintf("💤 VIX Below %g", s.threshold))
	}
	if len(out) == 0 {
		out = append(out, "✅ No major catalysts today")
	}
	return out
}

// Dashboard builds the single-day view for date.
func (s *Service) Dashboard(ctx context.Context, date time.Time) Dashboard {
	date = calendar.Day(date)
	res := s.scorer.Score(ctx, date)

	tier := TierFor(res)
	d := Dashboard{
		Date:       date,
		Score:      ScoreValue(res),
		ScoreLabel: ScoreLabel(res),
		MaxScore:   scoring.MaxScore,
		RiskLevel:  tier.Level,
		Risk:       tier,
		VIX:        s.vix(ctx),
		Catalysts:  s.Catalysts(res),
		Result:     res,
		Error:      errString(res),
	}
	d.NextHighRisk = s.NextHighRisk(ctx, date)
	return d
}

func (s *Service) vix(ctx context.Context) VIX {
	if s.feed == nil {
		return VIX{Status: "Unavailable"}
	}
	obs, err := s.feed.Latest(ctx)
	if err != nil {
		s.logger.Warn(ctx, "latest volatility unavailable", logger.Error(err))
		return VIX{Status: "Unavailable"}
	}
	return VIX{
		Available: true,
		Value:     obs.Close,
		Date:      obs.Date,
		Status:    volatility.Classify(obs.Close),
	}
}

// NextHighRisk finds the first weekday after date, within the lookahead, whose
// score is HIGH. Without one it falls back to the next Fed meeting strictly
// after date when that is within the lookahead. Nil means neither exists.
func (s *Service) NextHighRisk(ctx context.Context, date time.Time) *NextHighRisk {
	date = calendar.Day(date)

	var days []time.Time
	for i := 1; i <= s.lookaheadDays; i++ {
		d := date.AddDate(0, 0, i)
		if !calendar.IsWeekend(d) {
			days = append(days, d)
		}
	}

	results := s.scoreDays(ctx, days)
	for _, res := range results {
		if res.Computed() && res.Conviction == scoring.ConvictionHigh {
			return &NextHighRisk{
				Type:     "score",
				Date:     res.Date,
				DaysAway: calendar.DaysBetween(date, res.Date),
				Score:    res.Score,
				Label:    ScoreLabel(res),
			}
		}
	}

	for _, fed := range s.calendar.Upcoming(calendar.FedMeeting, date.AddDate(0, 0, 1)) {
		away := calendar.DaysBetween(date, fed)
		if away > s.lookaheadDays {
			break
		}
		return &NextHighRisk{
			Type:     "fed",
			Date:     fed,
			DaysAway: away,
			Label:    "Fed Meeting",
		}
	}
	return nil
}

// Weekly scores the next weekdays starting at date.
func (s *Service) Weekly(ctx context.Context, date time.Time) []DayScore {
	days := calendar.NextWeekdays(date, s.weeklyDays)
	results := s.scoreDays(ctx, days)

	out := make([]DayScore, len(results))
	for i, res := range results {
		out[i] = DayScore{
			Date:    res.Date,
			Weekday: res.Date.Weekday().String(),
			Score:   ScoreLabel(res),
			Risk:    TierFor(res),
			Result:  res,
			Error:   errString(res),
		}
	}
	return out
}

// FedCalendar lists every known Fed meeting strictly after date with its
// score and suggested entry day.
func (s *Service) FedCalendar(ctx context.Context, date time.Time) []FedMeeting {
	date = calendar.Day(date)
	meetings := s.calendar.Upcoming(calendar.FedMeeting, date.AddDate(0, 0, 1))
	results := s.scoreDays(ctx, meetings)

	out := make([]FedMeeting, len(results))
	for i, res := range results {
		entry := calendar.PreviousWeekday(res.Date.AddDate(0, 0, -fedEntryLeadDays))
		tier := TierFor(res)
		out[i] = FedMeeting{
			Date:           res.Date,
			EntryDate:      entry,
			DaysUntil:      calendar.DaysBetween(date, res.Date),
			DaysUntilEntry: calendar.DaysBetween(date, entry),
			Score:          ScoreLabel(res),
			Level:          tier.Level,
			Color:          tier.Color,
			Emoji:          calendarEmoji(tier.Level),
			Breakdown:      res.Breakdown,
			Error:          errString(res),
		}
	}
	return out
}

// scoreDays scores days concurrently and returns results in input order.
func (s *Service) scoreDays(ctx context.Context, days []time.Time) []scoring.Result {
	out := make([]scoring.Result, len(days))
	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for i, d := range days {
		g.Go(func() error {
			out[i] = s.scorer.Score(ctx, d)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
