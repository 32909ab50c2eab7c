package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/catalyst/internal/domain/earnings"
	. "github.com/smartystreets/goconvey/convey"
)

const historyMSFT = `[
  {"date":"2024-10-30","symbol":"MSFT","eps":3.3,"epsEstimated":3.1,"time":"amc","fiscalDateEnding":"2024-09-30"},
  {"date":"2024-07-30","symbol":"MSFT","eps":2.95,"epsEstimated":2.93,"time":"amc","fiscalDateEnding":"2024-06-30"},
  {"date":"2024-07-30","symbol":"MSFT","eps":null,"epsEstimated":2.93,"time":"amc","fiscalDateEnding":"2024-06-30"},
  {"date":"2024-04-25","symbol":"MSFT","eps":2.94,"epsEstimated":2.82,"time":"amc","fiscalDateEnding":"2024-03-31"}
]`

const historyNVDA = `[
  {"date":"2024-08-28","symbol":"NVDA","eps":0.68,"epsEstimated":0.64,"time":"amc","fiscalDateEnding":"2024-07-28"},
  {"date":"2024-05-22","symbol":"NVDA","eps":0.6,"epsEstimated":0.56,"time":"amc","fiscalDateEnding":"2024-04-28"}
]`

// fakeCalendar serves the historical earnings endpoint for key.
func fakeCalendar(key string, calls *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if r.URL.Query().Get("apikey") != key {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = fmt.Fprint(w, `{"Error Message":"Invalid API KEY."}`)
			return
		}
		switch strings.TrimPrefix(r.URL.Path, "/historical/earning_calendar/") {
		case "MSFT":
			_, _ = fmt.Fprint(w, historyMSFT)
		case "NVDA":
			_, _ = fmt.Fprint(w, historyNVDA)
		case "EMPTY":
			_, _ = fmt.Fprint(w, `[]`)
		case "LIMIT":
			_, _ = fmt.Fprint(w, `{"Error Message":"Limit Reach."}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestCalendar(url, key string) *EarningsCalendar {
	return NewEarningsCalendar(key, WithBaseURL(url), WithBackoff(time.Millisecond), WithRetries(1), WithTimeout(time.Second))
}

func TestEarningsCalendar_EarningsDates(t *testing.T) {
	Convey("Given a historical earnings calendar", t, func() {
		var gotPath, gotLimit string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotLimit = r.URL.Query().Get("limit")
			_, _ = fmt.Fprint(w, historyMSFT)
		}))
		defer srv.Close()

		Convey("When the symbol has reported before", func() {
			dates, err := newTestCalendar(srv.URL, "k").EarningsDates(context.Background(), "MSFT")

			Convey("Then past and scheduled dates come back sorted and distinct", func() {
				So(err, ShouldBeNil)
				So(gotPath, ShouldEqual, "/historical/earning_calendar/MSFT")
				So(gotLimit, ShouldEqual, "40")
				So(dates, ShouldResemble, []time.Time{d(2024, 4, 25), d(2024, 7, 30), d(2024, 10, 30)})
			})
		})
	})

	Convey("Given the fake calendar", t, func() {
		srv := fakeCalendar("k", nil)
		defer srv.Close()
		c := newTestCalendar(srv.URL, "k")

		Convey("When the history is empty", func() {
			dates, err := c.EarningsDates(context.Background(), "EMPTY")

			Convey("Then there is no data and no error", func() {
				So(err, ShouldBeNil)
				So(dates, ShouldBeEmpty)
			})
		})

		Convey("When the symbol is unknown", func() {
			dates, err := c.EarningsDates(context.Background(), "ZZZZ")

			Convey("Then there is no data and no error", func() {
				So(err, ShouldBeNil)
				So(dates, ShouldBeNil)
			})
		})

		Convey("When the provider answers with an error message", func() {
			_, err := c.EarningsDates(context.Background(), "LIMIT")

			Convey("Then it surfaces as a provider error", func() {
				So(errors.Is(err, ErrProvider), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "Limit Reach.")
			})
		})
	})

	Convey("Given a calendar without an API key", t, func() {
		var calls atomic.Int32
		srv := fakeCalendar("k", &calls)
		defer srv.Close()

		Convey("When dates are requested", func() {
			_, err := newTestCalendar(srv.URL, "").EarningsDates(context.Background(), "MSFT")

			Convey("Then it fails without calling the provider", func() {
				So(errors.Is(err, ErrMissingAPIKey), ShouldBeTrue)
				So(calls.Load(), ShouldEqual, 0)
			})
		})
	})
}

func TestEarningsCalendar_Checker(t *testing.T) {
	target := d(2024, 7, 31)

	Convey("Given the checker over the cached calendar", t, func() {
		srv := fakeCalendar("k", nil)
		defer srv.Close()
		feed := NewEarningsFeed(newTestCalendar(srv.URL, "k"))
		checker := earnings.NewChecker(feed, earnings.WithSymbols([]string{"MSFT", "NVDA"}))

		Convey("When a day right after a past report is checked", func() {
			res := checker.Check(context.Background(), target)

			Convey("Then the report inside the window matches", func() {
				So(res.Overlap, ShouldBeTrue)
				So(res.Failed(), ShouldBeEmpty)
				So(len(res.Matches), ShouldEqual, 1)
				So(res.Matches[0].Symbol, ShouldEqual, "MSFT")
				So(res.Matches[0].Date, ShouldEqual, d(2024, 7, 30))
				So(res.Matches[0].DaysApart, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a calendar that rejects the credentials", t, func() {
		var calls atomic.Int32
		srv := fakeCalendar("k", &calls)
		defer srv.Close()
		feed := NewEarningsFeed(newTestCalendar(srv.URL, "wrong"))
		checker := earnings.NewChecker(feed, earnings.WithSymbols([]string{"MSFT", "NVDA"}))

		Convey("When the same day is checked", func() {
			res := checker.Check(context.Background(), target)

			Convey("Then every symbol fails once and nothing overlaps", func() {
				So(res.Overlap, ShouldBeFalse)
				So(res.Failed(), ShouldResemble, []string{"MSFT", "NVDA"})
				So(calls.Load(), ShouldEqual, 2)

				var herr *ErrHTTP
				So(errors.As(res.Lookups[0].Err, &herr), ShouldBeTrue)
				So(herr.StatusCode, ShouldEqual, http.StatusUnauthorized)
				So(res.Lookups[0].Err.Error(), ShouldNotContainSubstring, "wrong")
			})
		})
	})
}

func TestRedact(t *testing.T) {
	Convey("Given a request URL carrying a key", t, func() {
		out := redact("https://example.com/historical/earning_calendar/MSFT?apikey=secret&limit=40")

		Convey("Then the key is masked and the rest kept", func() {
			So(out, ShouldNotContainSubstring, "secret")
			So(out, ShouldContainSubstring, "apikey=REDACTED")
			So(out, ShouldContainSubstring, "limit=40")
		})
	})

	Convey("Given a URL without a key", t, func() {
		raw := "https://example.com/v8/finance/chart/%5EVIX?interval=1d"

		Convey("Then it is returned untouched", func() {
			So(redact(raw), ShouldEqual, raw)
		})
	})
}
