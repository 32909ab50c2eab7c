package calendar

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	// ErrNoData is returned for any category when a year has no table.
	ErrNoData          = errors.New("no calendar data available")
	ErrInvalidDate     = errors.New("invalid date")
	ErrUnknownCategory = errors.New("unknown calendar category")
	ErrYearMismatch    = errors.New("date outside table year")
)
