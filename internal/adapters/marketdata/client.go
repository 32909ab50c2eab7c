// Package marketdata fetches volatility index closes from Yahoo Finance and
// earnings announcement history from Financial Modeling Prep, and caches both
// in memory.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/catalyst/internal/domain/calendar"
	"github.com/okian/catalyst/internal/domain/volatility"
	"github.com/okian/catalyst/pkg/logger"
	"github.com/okian/catalyst/pkg/metrics"
)

// Endpoint labels used in metrics and logs.
const endpointChart = "chart"

const maxErrorBody = 1024

// Client is a small JSON-over-HTTP client for the market data providers.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	retries   int
	backoff   time.Duration
	userAgent string
	loc       *time.Location
	logger    logger.Logger
}

// NewClient creates a new client with configuration options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		http:      &http.Client{},
		timeout:   defaultTimeout,
		retries:   defaultRetries,
		backoff:   defaultBackoff,
		userAgent: defaultUserAgent,
		loc:       time.UTC,
	}
	if ny, err := time.LoadLocation("America/New_York"); err == nil {
		c.loc = ny
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	if c.logger == nil {
		c.logger = logger.Get().Named("marketdata")
	}
	return c
}

// --- Yahoo Finance response types ---

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// History returns daily closes of symbol between from and to. Timestamps are
// mapped to the exchange-local calendar day and null closes are dropped.
func (c *Client) History(ctx context.Context, symbol string, from, to time.Time) (volatility.Series, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(from.Unix(), 10))
	q.Set("period2", strconv.FormatInt(to.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")

	var resp chartResponse
	path := "/v8/finance/chart/" + url.PathEscape(symbol)
	if err := c.get(ctx, endpointChart, path, q, &resp); err != nil {
		return volatility.Series{}, fmt.Errorf("history %s: %w", symbol, err)
	}
	if e := resp.Chart.Error; e != nil {
		return volatility.Series{}, fmt.Errorf("history %s: %w", symbol, classifyAPIError(e))
	}
	if len(resp.Chart.Result) == 0 {
		return volatility.Series{}, fmt.Errorf("history %s: %w", symbol, ErrNotFound)
	}

	r := resp.Chart.Result[0]
	loc := c.loc
	if r.Meta.ExchangeTimezoneName != "" {
		if l, err := time.LoadLocation(r.Meta.ExchangeTimezoneName); err == nil {
			loc = l
		}
	}

	var closes []*float64
	if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}
	obs := make([]volatility.Observation, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		obs = append(obs, volatility.Observation{
			Date:  calendar.Day(time.Unix(ts, 0).In(loc)),
			Close: *closes[i],
		})
	}
	return volatility.NewSeries(symbol, obs), nil
}

func classifyAPIError(e *apiError) error {
	if strings.EqualFold(e.Code, "Not Found") {
		return fmt.Errorf("%w: %s", ErrNotFound, e.Description)
	}
	return fmt.Errorf("%w: %s: %s", ErrProvider, e.Code, e.Description)
}

// get issues a GET with retries on transport errors, 429 and 5xx. The wait
// before attempt n is n*backoff and honors ctx.
func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w (last error: %w)", ctx.Err(), lastErr)
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}

		start := time.Now()
		retry, err := c.do(ctx, u, out)
		outcome := outcomeOf(err)
		metrics.RecordProviderRequest(endpoint, outcome, float64(time.Since(start).Microseconds())/1000)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
		c.logger.Debug(ctx, "retrying provider request",
			logger.String("endpoint", endpoint),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}
	metrics.RecordErrorByComponent("marketdata", outcomeOf(lastErr))
	return lastErr
}

// do performs one attempt and reports whether a failure is worth retrying.
func (c *Client) do(ctx context.Context, u string, out any) (bool, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = redact(uerr.URL)
		}
		return true, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return true, ErrRateLimited
	case resp.StatusCode >= http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		herr := &ErrHTTP{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(body))}
		return resp.StatusCode >= http.StatusInternalServerError, herr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return false, nil
}

// redact masks credentials carried in the query string.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("apikey") == "" {
		return raw
	}
	q.Set("apikey", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}

func outcomeOf(err error) string {
	var herr *ErrHTTP
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrDecode):
		return "decode_error"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	case errors.As(err, &herr):
		return "http_" + strconv.Itoa(herr.StatusCode)
	default:
		return "transport_error"
	}
}
