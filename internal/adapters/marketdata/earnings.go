package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/okian/catalyst/internal/domain/calendar"
)

// Default earnings calendar configuration constants.
const (
	DefaultEarningsBaseURL = "https://financialmodelingprep.com/api/v3"
	endpointEarnings       = "earning_calendar"
	// ten years of quarterly reports
	defaultEarningsLimit = 40
)

// ErrMissingAPIKey is returned when the earnings calendar has no API key.
var ErrMissingAPIKey = errors.New("earnings calendar api key not configured")

// fmpEarning is one row of the historical earnings calendar.
type fmpEarning struct {
	Date             string   `json:"date"`
	Symbol           string   `json:"symbol"`
	EPS              *float64 `json:"eps"`
	EPSEstimated     *float64 `json:"epsEstimated"`
	Time             string   `json:"time"`
	FiscalDateEnding string   `json:"fiscalDateEnding"`
}

// fmpError is the body sent instead of a list when a request is refused.
type fmpError struct {
	Message string `json:"Error Message"`
}

// EarningsCalendar serves the dated announcement history of a symbol, past
// reports as well as scheduled ones, from Financial Modeling Prep.
type EarningsCalendar struct {
	client *Client
	apiKey string
	limit  int
}

// NewEarningsCalendar creates a calendar authenticated with apiKey. Client
// options apply to the underlying transport; the base URL defaults to
// DefaultEarningsBaseURL.
func NewEarningsCalendar(apiKey string, opts ...Option) *EarningsCalendar {
	opts = append([]Option{WithBaseURL(DefaultEarningsBaseURL)}, opts...)
	return &EarningsCalendar{
		client: NewClient(opts...),
		apiKey: apiKey,
		limit:  defaultEarningsLimit,
	}
}

// EarningsDates returns every known announcement date of symbol in ascending
// order. An unknown symbol or an empty history yields nil without an error.
func (e *EarningsCalendar) EarningsDates(ctx context.Context, symbol string) ([]time.Time, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("earnings %s: %w", symbol, ErrMissingAPIKey)
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(e.limit))
	q.Set("apikey", e.apiKey)

	var raw json.RawMessage
	path := "/historical/earning_calendar/" + url.PathEscape(symbol)
	err := e.client.get(ctx, endpointEarnings, path, q, &raw)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("earnings %s: %w", symbol, err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var fe fmpError
		if err := json.Unmarshal(raw, &fe); err != nil {
			return nil, fmt.Errorf("earnings %s: %w: %w", symbol, ErrDecode, err)
		}
		if fe.Message == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("earnings %s: %w: %s", symbol, ErrProvider, fe.Message)
	}

	var rows []fmpEarning
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("earnings %s: %w: %w", symbol, ErrDecode, err)
	}

	seen := make(map[time.Time]bool, len(rows))
	var out []time.Time
	for _, r := range rows {
		d, err := calendar.ParseDate(r.Date)
		if err != nil || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}
