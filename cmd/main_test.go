package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	service "github.com/okian/catalyst/internal/app"
	"github.com/okian/catalyst/internal/config"
	"github.com/okian/catalyst/internal/domain/calendar"
	"github.com/okian/catalyst/internal/domain/earnings"
	"github.com/okian/catalyst/internal/domain/scoring"
	"github.com/okian/catalyst/internal/domain/volatility"
	"github.com/okian/catalyst/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const chartBody = `{"chart":{"result":[{
  "meta":{"symbol":"^VIX","exchangeTimezoneName":"America/New_York"},
  "timestamp":[1728912600,1728999000,1729085400,1729171800],
  "indicators":{"quote":[{"close":[19.7,18.5,17.9,17.2]}]}
}],"error":null}}`

const earningsBody = `[
  {"date":"2024-10-30","symbol":"MSFT","fiscalDateEnding":"2024-09-30"},
  {"date":"2024-07-30","symbol":"MSFT","fiscalDateEnding":"2024-06-30"}
]`

const testAPIKey = "test-key"

func clearEnv() {
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, config.EnvPrefix) {
			_ = os.Unsetenv(key)
		}
	}
}

// fakeProvider serves the chart and historical earnings endpoints.
func fakeProvider() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/"):
			_, _ = fmt.Fprint(w, chartBody)
		case r.URL.Path == "/historical/earning_calendar/MSFT":
			if r.URL.Query().Get("apikey") != testAPIKey {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = fmt.Fprint(w, earningsBody)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func testConfig(baseURL string) *config.Config {
	cfg := config.New()
	cfg.ProviderBaseURL = baseURL
	cfg.EarningsBaseURL = baseURL
	cfg.EarningsAPIKey = testAPIKey
	cfg.ProviderBackoff = time.Millisecond
	cfg.RefreshInterval = 0
	cfg.Watchlist = []string{"MSFT", "NOPE"}
	return cfg
}

func TestWiring(t *testing.T) {
	convey.Convey("Given the full stack over a fake provider", t, func() {
		srv := fakeProvider()
		defer srv.Close()

		svc, err := build(testConfig(srv.URL))
		convey.So(err, convey.ShouldBeNil)
		ctx := context.Background()

		convey.Convey("When a quiet day is scored", func() {
			dash := svc.Dashboard(ctx, time.Date(2024, 10, 17, 0, 0, 0, 0, time.UTC))

			convey.Convey("Then only the low VIX counts", func() {
				convey.So(dash.Result.Computed(), convey.ShouldBeTrue)
				convey.So(dash.ScoreLabel, convey.ShouldEqual, "2/9")
				convey.So(*dash.Score, convey.ShouldEqual, 2)
				convey.So(dash.RiskLevel, convey.ShouldEqual, service.RiskLow)
				convey.So(dash.Result.Breakdown.VIXLow, convey.ShouldBeTrue)
				convey.So(dash.Result.Details.Volatility.Observation.Close, convey.ShouldEqual, 17.2)
				convey.So(dash.VIX.Value, convey.ShouldEqual, 17.2)
			})

			convey.Convey("And the next HIGH day combines earnings, VIX and payrolls", func() {
				convey.So(dash.NextHighRisk, convey.ShouldNotBeNil)
				convey.So(dash.NextHighRisk.Type, convey.ShouldEqual, "score")
				convey.So(calendar.Format(dash.NextHighRisk.Date), convey.ShouldEqual, "2024-10-28")
				convey.So(dash.NextHighRisk.DaysAway, convey.ShouldEqual, 11)
			})
		})

		convey.Convey("When the routes are served", func() {
			h := newHandler(ctx, svc)

			for _, target := range []string{"/", "/weekly?date=2024-10-17", "/fed-calendar?date=2024-10-17", "/api/score?date=2024-10-17", "/api-docs", "/openapi.yaml", "/healthz", "/stats"} {
				req := httptest.NewRequest(http.MethodGet, target, nil)
				w := httptest.NewRecorder()
				h.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("X-Request-ID"), convey.ShouldNotBeEmpty)
			}

			convey.Convey("Then a malformed date is rejected", func() {
				req := httptest.NewRequest(http.MethodGet, "/api/score?date=17-10-2024", nil)
				w := httptest.NewRecorder()
				h.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestWriteReport(t *testing.T) {
	convey.Convey("Given a computed dashboard", t, func() {
		b := scoring.Breakdown{FedMeeting: true, VIXLow: true, Earnings: true}
		res := scoring.Result{
			Date:       time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC),
			Status:     scoring.StatusComputed,
			Score:      scoring.Compute(b),
			Conviction: scoring.ConvictionFor(scoring.Compute(b)),
			Breakdown:  b,
			Details: scoring.Details{
				Volatility: &volatility.Reading{
					Observation: volatility.Observation{Close: 16.36},
					Threshold:   18,
					Below:       true,
				},
				EarningsMatches: []earnings.Match{{Symbol: "MSFT", Date: time.Date(2024, 7, 30, 0, 0, 0, 0, time.UTC), DaysApart: 1}},
				FailedSymbols:   []string{"META"},
			},
		}
		dash := service.Dashboard{
			Date:       res.Date,
			ScoreLabel: service.ScoreLabel(res),
			Risk:       service.TierFor(res),
			Result:     res,
		}

		convey.Convey("When it is written", func() {
			var buf bytes.Buffer
			writeReport(&buf, dash)
			out := buf.String()

			convey.Convey("Then every check is listed with its points", func() {
				convey.So(out, convey.ShouldContainSubstring, "Entry Score for 2024-07-31 (Wednesday)")
				convey.So(out, convey.ShouldContainSubstring, "✓ Fed meeting date: +2 points")
				convey.So(out, convey.ShouldContainSubstring, "✓ VIX below 18 (16.36): +2 points")
				convey.So(out, convey.ShouldContainSubstring, "✓ Big tech earnings nearby: +3 points")
				convey.So(out, convey.ShouldContainSubstring, "MSFT reports 2024-07-30 (1 days)")
				convey.So(out, convey.ShouldContainSubstring, "lookup failed: META")
				convey.So(out, convey.ShouldContainSubstring, "✗ No economic data: 0 points")
				convey.So(out, convey.ShouldContainSubstring, "TOTAL SCORE: 7/9")
				convey.So(out, convey.ShouldContainSubstring, "Conviction Level: HIGH")
				convey.So(out, convey.ShouldContainSubstring, "VIX: unavailable")
			})
		})
	})

	convey.Convey("Given an indeterminate dashboard", t, func() {
		res := scoring.Result{
			Date:   time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC),
			Status: scoring.StatusIndeterminate,
			Err:    scoring.ErrVolatilityUnavailable,
		}
		dash := service.Dashboard{Date: res.Date, ScoreLabel: service.ScoreLabel(res), Result: res, Error: res.Err.Error()}

		convey.Convey("Then the report says the score is unavailable", func() {
			var buf bytes.Buffer
			writeReport(&buf, dash)
			convey.So(buf.String(), convey.ShouldContainSubstring, "TOTAL SCORE: score unavailable")
			convey.So(buf.String(), convey.ShouldNotContainSubstring, "Conviction Level")
		})
	})
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		clearEnv()
		defer clearEnv()

		convey.Convey("When report gets a malformed date", func() {
			cmd := newRootCmd()
			cmd.SetArgs([]string{"report", "2024-02-30"})
			cmd.SetOut(&bytes.Buffer{})
			err := cmd.ExecuteContext(context.Background())

			convey.Convey("Then it fails with an invalid date", func() {
				convey.So(errors.Is(err, calendar.ErrInvalidDate), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When report runs against the fake provider", func() {
			srv := fakeProvider()
			defer srv.Close()
			_ = os.Setenv("CATALYST_PROVIDER_BASE_URL", srv.URL)
			_ = os.Setenv("CATALYST_EARNINGS_BASE_URL", srv.URL)
			_ = os.Setenv("CATALYST_EARNINGS_API_KEY", testAPIKey)
			_ = os.Setenv("CATALYST_WATCHLIST", "MSFT")
			_ = os.Setenv("CATALYST_REFRESH_INTERVAL", "0s")

			var out bytes.Buffer
			cmd := newRootCmd()
			cmd.SetArgs([]string{"report", "2024-10-28"})
			cmd.SetOut(&out)
			err := cmd.ExecuteContext(context.Background())

			convey.Convey("Then the report is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "TOTAL SCORE: 7/9")
				convey.So(out.String(), convey.ShouldContainSubstring, "MSFT reports 2024-10-30 (2 days)")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			cmd := newRootCmd()
			cmd.SetArgs([]string{"report", "--config", "/non/existent.yaml"})
			err := cmd.ExecuteContext(context.Background())

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When too many arguments are given", func() {
			cmd := newRootCmd()
			cmd.SetArgs([]string{"report", "2024-10-28", "2024-10-29"})
			cmd.SetErr(&bytes.Buffer{})

			convey.So(cmd.ExecuteContext(context.Background()), convey.ShouldNotBeNil)
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then an update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("And the loop stops with its context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()
			cancel()
			select {
			case <-done:
			case <-time.After(time.Second):
				convey.So("updater did not stop", convey.ShouldBeEmpty)
			}
		})
	})
}
