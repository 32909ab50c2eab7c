// Package volatility implements the as-of lookup and threshold check over a
// daily closing series of a volatility index such as the VIX.
package volatility

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/catalyst/internal/domain/calendar"
)

// DefaultThreshold is the level below which the index counts as "low".
const DefaultThreshold = 18.0

// Status bands used for display.
const (
	veryLowBelow  = 15.0
	moderateBelow = 20.0
	elevatedBelow = 30.0
)

// ErrNoObservation is returned when a series has no value at or before the
// requested date.
var ErrNoObservation = errors.New("no observation at or before date")

// Observation is one daily close.
type Observation struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Series is an ascending, one-per-day sequence of closes.
type Series struct {
	Symbol       string
	Observations []Observation
}

// NewSeries normalizes obs into a Series: dates are truncated to calendar
// days, non-finite closes are dropped, and for duplicate days the last value
// wins.
func NewSeries(symbol string, obs []Observation) Series {
	byDay := make(map[time.Time]float64, len(obs))
	for _, o := range obs {
		if math.IsNaN(o.Close) || math.IsInf(o.Close, 0) {
			continue
		}
		byDay[calendar.Day(o.Date)] = o.Close
	}
	out := make([]Observation, 0, len(byDay))
	for d, c := range byDay {
		out = append(out, Observation{Date: d, Close: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return Series{Symbol: symbol, Observations: out}
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Observations) }

// AsOf returns the most recent observation at or before date. A weekend or
// holiday resolves to the prior trading day.
func (s Series) AsOf(date time.Time) (Observation, error) {
	date = calendar.Day(date)
	obs := s.Observations
	// first index strictly after date
	i := sort.Search(len(obs), func(i int) bool { return obs[i].Date.After(date) })
	if i == 0 {
		return Observation{}, fmt.Errorf("%w: %s %s", ErrNoObservation, s.Symbol, calendar.Format(date))
	}
	return obs[i-1], nil
}

// Latest returns the last observation of the series.
func (s Series) Latest() (Observation, error) {
	if len(s.Observations) == 0 {
		return Observation{}, fmt.Errorf("%w: %s is empty", ErrNoObservation, s.Symbol)
	}
	return s.Observations[len(s.Observations)-1], nil
}

// Reading is the outcome of a threshold check.
type Reading struct {
	Observation Observation `json:"observation"`
	Threshold   float64     `json:"threshold"`
	Below       bool        `json:"below"`
}

// CheckBelow reports whether the as-of close for date is strictly below
// threshold. A missing observation is an error, never a silent false.
func CheckBelow(s Series, date time.Time, threshold float64) (Reading, error) {
	obs, err := s.AsOf(date)
	if err != nil {
		return Reading{}, err
	}
	return Reading{
		Observation: obs,
		Threshold:   threshold,
		Below:       obs.Close < threshold,
	}, nil
}

// Classify maps an index level to a human readable band.
func Classify(value float64) string {
	switch {
	case value < veryLowBelow:
		return "Very Low"
	case value < moderateBelow:
		return "Low to Moderate"
	case value < elevatedBelow:
		return "Elevated"
	default:
		return "High"
	}
}
