// Package calendar holds the static event tables (Fed meetings, CPI and NFP
// releases) and the date helpers shared by the catalyst checks.
//
// A Calendar is populated during start-up (built-in tables plus any years
// added from configuration) and is read-only afterwards, so it is safe for
// concurrent readers without locking.
package calendar

import (
	"fmt"
	"sort"
	"time"
)

// Category names an event table.
type Category string

// Known categories.
const (
	FedMeeting Category = "fed_meeting"
	CPI        Category = "cpi"
	NFP        Category = "nfp"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case FedMeeting, CPI, NFP:
		return true
	}
	return false
}

// Calendar maps category -> year -> ordered dates.
type Calendar struct {
	tables map[Category]map[int][]time.Time
}

// New returns a calendar preloaded with the built-in 2023-2025 tables.
func New() *Calendar {
	c := Empty()
	for cat, years := range builtin {
		for year, dates := range years {
			if err := c.AddStrings(cat, year, dates); err != nil {
				// Built-in tables are constant; a failure here is a programming error.
				panic(err)
			}
		}
	}
	return c
}

// Empty returns a calendar without any tables.
func Empty() *Calendar {
	return &Calendar{tables: make(map[Category]map[int][]time.Time)}
}

// Add registers dates for category and year. Existing dates for the year are
// merged; duplicates are dropped. Every date must fall inside year.
func (c *Calendar) Add(cat Category, year int, dates []time.Time) error {
	if !cat.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	years, ok := c.tables[cat]
	if !ok {
		years = make(map[int][]time.Time)
		c.tables[cat] = years
	}

	seen := make(map[time.Time]struct{}, len(years[year])+len(dates))
	merged := make([]time.Time, 0, len(years[year])+len(dates))
	for _, d := range years[year] {
		seen[d] = struct{}{}
		merged = append(merged, d)
	}
	for _, d := range dates {
		d = Day(d)
		if d.Year() != year {
			return fmt.Errorf("%w: %s is not in %d", ErrYearMismatch, Format(d), year)
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		merged = append(merged, d)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Before(merged[j]) })
	years[year] = merged
	return nil
}

// AddStrings parses YYYY-MM-DD strings and registers them via Add.
func (c *Calendar) AddStrings(cat Category, year int, dates []string) error {
	parsed := make([]time.Time, 0, len(dates))
	for _, s := range dates {
		d, err := ParseDate(s)
		if err != nil {
			return fmt.Errorf("%s %d: %w", cat, year, err)
		}
		parsed = append(parsed, d)
	}
	return c.Add(cat, year, parsed)
}

// Dates returns the ordered dates for category in year, or ErrNoData when the
// year has no table.
func (c *Calendar) Dates(cat Category, year int) ([]time.Time, error) {
	if !cat.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	dates, ok := c.tables[cat][year]
	if !ok {
		return nil, fmt.Errorf("%w: %s %d", ErrNoData, cat, year)
	}
	out := make([]time.Time, len(dates))
	copy(out, dates)
	return out, nil
}

// Contains reports whether date is an event of category. A year without a
// table yields (false, ErrNoData).
func (c *Calendar) Contains(cat Category, date time.Time) (bool, error) {
	date = Day(date)
	dates, err := c.Dates(cat, date.Year())
	if err != nil {
		return false, err
	}
	i := sort.Search(len(dates), func(i int) bool { return !dates[i].Before(date) })
	return i < len(dates) && dates[i].Equal(date), nil
}

// Nearby returns the dates of category in date's year that are at most window
// days away from date.
func (c *Calendar) Nearby(cat Category, date time.Time, window int) ([]time.Time, error) {
	date = Day(date)
	dates, err := c.Dates(cat, date.Year())
	if err != nil {
		return nil, err
	}
	var out []time.Time
	for _, d := range dates {
		if AbsDays(date, d) <= window {
			out = append(out, d)
		}
	}
	return out, nil
}

// All returns every date of category across all years, ascending.
func (c *Calendar) All(cat Category) []time.Time {
	var out []time.Time
	for _, year := range c.Years(cat) {
		out = append(out, c.tables[cat][year]...)
	}
	return out
}

// Upcoming returns the dates of category on or after from, ascending.
func (c *Calendar) Upcoming(cat Category, from time.Time) []time.Time {
	from = Day(from)
	all := c.All(cat)
	i := sort.Search(len(all), func(i int) bool { return !all[i].Before(from) })
	return all[i:]
}

// Years returns the covered years of category, ascending.
func (c *Calendar) Years(cat Category) []int {
	years := make([]int, 0, len(c.tables[cat]))
	for y := range c.tables[cat] {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Covers reports whether category has a table for year.
func (c *Calendar) Covers(cat Category, year int) bool {
	_, ok := c.tables[cat][year]
	return ok
}
