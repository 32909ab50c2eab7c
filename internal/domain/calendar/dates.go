package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the ISO date layout used by tables, configuration and the API.
const Layout = "2006-01-02"

const hoursPerDay = 24

// ParseDate parses a YYYY-MM-DD string into a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrInvalidDate)
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q must be YYYY-MM-DD", ErrInvalidDate, s)
	}
	return t, nil
}

// Day truncates t to its calendar day, keeping t's wall-clock date, and
// returns it at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Day(now.In(loc))
}

// Format renders a day as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / hoursPerDay)
}

// AbsDays returns the absolute number of calendar days between a and b.
func AbsDays(a, b time.Time) int {
	d := DaysBetween(a, b)
	if d < 0 {
		return -d
	}
	return d
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// NextWeekdays returns n weekdays starting at from (inclusive when from is a
// weekday).
func NextWeekdays(from time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for d := Day(from); len(out) < n; d = d.AddDate(0, 0, 1) {
		if !IsWeekend(d) {
			out = append(out, d)
		}
	}
	return out
}

// PreviousWeekday steps back from t until it lands on a weekday.
func PreviousWeekday(t time.Time) time.Time {
	d := Day(t)
	for IsWeekend(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
