package calendar

import (
	"errors"
	"time"
)

// DefaultWindowDays is the proximity window used by the release checks.
const DefaultWindowDays = 5

// EconomicCheck reports CPI and NFP releases near a target date.
type EconomicCheck struct {
	CPI      bool        `json:"cpi"`
	NFP      bool        `json:"nfp"`
	CPIDates []time.Time `json:"cpi_dates,omitempty"`
	NFPDates []time.Time `json:"nfp_dates,omitempty"`
	// Covered is false when the target year has no CPI or no NFP table.
	Covered bool `json:"covered"`
}

// Any reports whether either release is within the window.
func (e EconomicCheck) Any() bool { return e.CPI || e.NFP }

// CheckEconomic looks up the target year's CPI and NFP tables and reports
// releases at most window days away. Years without tables yield no matches;
// this never fails.
func (c *Calendar) CheckEconomic(date time.Time, window int) EconomicCheck {
	out := EconomicCheck{Covered: true}

	cpi, err := c.Nearby(CPI, date, window)
	if errors.Is(err, ErrNoData) {
		out.Covered = false
	}
	nfp, err := c.Nearby(NFP, date, window)
	if errors.Is(err, ErrNoData) {
		out.Covered = false
	}

	out.CPIDates, out.CPI = cpi, len(cpi) > 0
	out.NFPDates, out.NFP = nfp, len(nfp) > 0
	return out
}
