package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	service "github.com/okian/catalyst/internal/app"
	"github.com/okian/catalyst/internal/domain/calendar"
	"github.com/okian/catalyst/internal/domain/scoring"
	"github.com/okian/catalyst/internal/domain/volatility"
	"github.com/okian/catalyst/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// fakeScorer returns canned breakdowns per day and LOW everywhere else.
type fakeScorer struct {
	mu     sync.Mutex
	byDay  map[time.Time]scoring.Breakdown
	failOn map[time.Time]bool
	calls  []time.Time
}

func newFakeScorer() *fakeScorer {
	return &fakeScorer{
		byDay:  make(map[time.Time]scoring.Breakdown),
		failOn: make(map[time.Time]bool),
	}
}

func (f *fakeScorer) Score(_ context.Context, date time.Time) scoring.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, date)

	res := scoring.Result{Date: date}
	if f.failOn[date] {
		res.Status = scoring.StatusIndeterminate
		res.Err = scoring.ErrVolatilityUnavailable
		return res
	}
	res.Status = scoring.StatusComputed
	res.Breakdown = f.byDay[date]
	res.Score = scoring.Compute(res.Breakdown)
	res.Conviction = scoring.ConvictionFor(res.Score)
	return res
}

type fakeFeed struct {
	refreshes atomic.Int32
	err       error
	obs       volatility.Observation
}

func (f *fakeFeed) Latest(context.Context) (volatility.Observation, error) {
	return f.obs, f.err
}

func (f *fakeFeed) Refresh(context.Context) error {
	f.refreshes.Add(1)
	return f.err
}

var allChecks = scoring.Breakdown{FedMeeting: true, VIXLow: true, Earnings: true, EconomicData: true}

func TestTierFor(t *testing.T) {
	Convey("Given results across the conviction range", t, func() {
		computed := func(score int) scoring.Result {
			return scoring.Result{Status: scoring.StatusComputed, Score: score, Conviction: scoring.ConvictionFor(score)}
		}

		Convey("Then each maps to its display tier", func() {
			So(service.TierFor(computed(9)).Level, ShouldEqual, service.RiskHigh)
			So(service.TierFor(computed(7)).Color, ShouldEqual, "#dc3545")
			So(service.TierFor(computed(6)).Level, ShouldEqual, service.RiskModerate)
			So(service.TierFor(computed(4)).Level, ShouldEqual, service.RiskModerate)
			So(service.TierFor(computed(3)).Level, ShouldEqual, service.RiskLow)
			So(service.TierFor(computed(0)).Emoji, ShouldEqual, "✅")
		})

		Convey("Then an indeterminate result is never LOW", func() {
			res := scoring.Result{Status: scoring.StatusIndeterminate, Err: scoring.ErrVolatilityUnavailable}
			So(service.TierFor(res).Level, ShouldEqual, service.RiskIndeterminate)
			So(service.ScoreLabel(res), ShouldEqual, "score unavailable")
		})
	})
}

func TestService_Dashboard(t *testing.T) {
	Convey("Given a service with a HIGH day two days out", t, func() {
		scorer := newFakeScorer()
		scorer.byDay[d(2024, 7, 29)] = scoring.Breakdown{EconomicData: true, VIXLow: true}
		scorer.byDay[d(2024, 7, 31)] = allChecks
		feed := &fakeFeed{obs: volatility.Observation{Date: d(2024, 7, 26), Close: 16.4}}
		svc := service.New(scorer, service.WithVolatilityFeed(feed))
		ctx := context.Background()

		Convey("When the dashboard is built", func() {
			dash := svc.Dashboard(ctx, d(2024, 7, 29))

			Convey("Then the score and copy match a MODERATE day", func() {
				So(*dash.Score, ShouldEqual, 4)
				So(dash.ScoreLabel, ShouldEqual, "4/9")
				So(dash.RiskLevel, ShouldEqual, service.RiskModerate)
				So(dash.Risk.Level, ShouldEqual, service.RiskModerate)
				So(dash.Catalysts, ShouldResemble, []string{"📈 Economic Data Release", "💤 VIX Below 18"})
				So(dash.Error, ShouldBeEmpty)
			})

			Convey("And the VIX widget shows the latest close", func() {
				So(dash.VIX.Available, ShouldBeTrue)
				So(dash.VIX.Value, ShouldEqual, 16.4)
				So(dash.VIX.Status, ShouldEqual, "Low to Moderate")
			})

			Convey("And the next high-risk day is found", func() {
				So(dash.NextHighRisk, ShouldNotBeNil)
				So(dash.NextHighRisk.Type, ShouldEqual, "score")
				So(dash.NextHighRisk.Date, ShouldEqual, d(2024, 7, 31))
				So(dash.NextHighRisk.DaysAway, ShouldEqual, 2)
				So(dash.NextHighRisk.Score, ShouldEqual, 9)
			})
		})

		Convey("When the feed and the score are unavailable", func() {
			feed.err = errors.New("upstream down")
			scorer.failOn[d(2024, 7, 29)] = true
			dash := svc.Dashboard(ctx, d(2024, 7, 29))

			Convey("Then nothing pretends to be zero", func() {
				So(dash.Score, ShouldBeNil)
				So(dash.ScoreLabel, ShouldEqual, "score unavailable")
				So(dash.RiskLevel, ShouldEqual, service.RiskIndeterminate)
				So(dash.Risk.Level, ShouldEqual, service.RiskIndeterminate)
				So(dash.Error, ShouldNotBeEmpty)
				So(dash.VIX.Available, ShouldBeFalse)
				So(dash.VIX.Status, ShouldEqual, "Unavailable")
			})
		})

		Convey("When no check fires", func() {
			dash := svc.Dashboard(ctx, d(2024, 8, 20))

			Convey("Then the calm label is shown", func() {
				So(dash.Catalysts, ShouldResemble, []string{"✅ No major catalysts today"})
			})
		})
	})
}

func TestService_NextHighRisk(t *testing.T) {
	Convey("Given a service where no day scores HIGH", t, func() {
		scorer := newFakeScorer()
		svc := service.New(scorer)
		ctx := context.Background()

		Convey("When the next Fed meeting is exactly 30 days away", func() {
			next := svc.NextHighRisk(ctx, d(2024, 7, 1))

			Convey("Then the Fed fallback is used", func() {
				So(next, ShouldNotBeNil)
				So(next.Type, ShouldEqual, "fed")
				So(next.Date, ShouldEqual, d(2024, 7, 31))
				So(next.DaysAway, ShouldEqual, 30)
			})
		})

		Convey("When the next Fed meeting is further than the lookahead", func() {
			next := svc.NextHighRisk(ctx, d(2024, 6, 13))

			Convey("Then there is nothing to point at", func() {
				So(next, ShouldBeNil)
			})
		})

		Convey("When the date is itself a Fed day", func() {
			next := svc.NextHighRisk(ctx, d(2024, 7, 31))

			Convey("Then the same day is not reported", func() {
				So(next, ShouldBeNil)
			})
		})

		Convey("When scanning", func() {
			_ = svc.NextHighRisk(ctx, d(2024, 7, 1))

			Convey("Then weekends are skipped", func() {
				for _, c := range scorer.calls {
					So(calendar.IsWeekend(c), ShouldBeFalse)
				}
				So(len(scorer.calls), ShouldEqual, 22)
			})
		})
	})

	Convey("Given a shorter lookahead", t, func() {
		svc := service.New(newFakeScorer(), service.WithLookaheadDays(10))

		Convey("Then the Fed fallback respects it", func() {
			So(svc.NextHighRisk(context.Background(), d(2024, 7, 1)), ShouldBeNil)
			So(svc.NextHighRisk(context.Background(), d(2024, 7, 22)), ShouldNotBeNil)
		})
	})
}

func TestService_Weekly(t *testing.T) {
	Convey("Given a service", t, func() {
		scorer := newFakeScorer()
		scorer.byDay[d(2024, 3, 27)] = scoring.Breakdown{Earnings: true, FedMeeting: true, EconomicData: true}
		scorer.failOn[d(2024, 3, 28)] = true
		svc := service.New(scorer)

		Convey("When the week starts on a Saturday", func() {
			week := svc.Weekly(context.Background(), d(2024, 3, 23))

			Convey("Then seven weekdays follow in order", func() {
				So(len(week), ShouldEqual, 7)
				So(week[0].Date, ShouldEqual, d(2024, 3, 25))
				So(week[0].Weekday, ShouldEqual, "Monday")
				So(week[6].Date, ShouldEqual, d(2024, 4, 2))
				for _, day := range week {
					So(calendar.IsWeekend(day.Date), ShouldBeFalse)
				}
			})

			Convey("And each row carries its own tier", func() {
				So(week[2].Score, ShouldEqual, "7/9")
				So(week[2].Risk.Level, ShouldEqual, service.RiskHigh)
				So(week[3].Risk.Level, ShouldEqual, service.RiskIndeterminate)
				So(week[3].Error, ShouldNotBeEmpty)
				So(week[4].Risk.Level, ShouldEqual, service.RiskLow)
			})
		})
	})

	Convey("Given a custom week length", t, func() {
		svc := service.New(newFakeScorer(), service.WithWeeklyDays(3))

		Convey("Then only that many days are shown", func() {
			So(len(svc.Weekly(context.Background(), d(2024, 3, 25))), ShouldEqual, 3)
		})
	})
}

func TestService_FedCalendar(t *testing.T) {
	Convey("Given a service with the built-in tables", t, func() {
		scorer := newFakeScorer()
		scorer.byDay[d(2025, 12, 10)] = allChecks
		svc := service.New(scorer)

		Convey("When listing from December 2025", func() {
			meetings := svc.FedCalendar(context.Background(), d(2025, 12, 1))

			Convey("Then the last meeting of the tables is listed with its entry day", func() {
				So(len(meetings), ShouldEqual, 1)
				m := meetings[0]
				So(m.Date, ShouldEqual, d(2025, 12, 10))
				// three days before is a Sunday, entry moves back to Friday
				So(m.EntryDate, ShouldEqual, d(2025, 12, 5))
				So(m.DaysUntil, ShouldEqual, 9)
				So(m.DaysUntilEntry, ShouldEqual, 4)
				So(m.Score, ShouldEqual, "9/9")
				So(m.Level, ShouldEqual, service.RiskHigh)
				So(m.Emoji, ShouldEqual, "🔥")
				So(m.Breakdown, ShouldResemble, allChecks)
			})
		})

		Convey("When listing from a meeting day", func() {
			meetings := svc.FedCalendar(context.Background(), d(2025, 10, 29))

			Convey("Then only later meetings are listed", func() {
				So(len(meetings), ShouldEqual, 1)
				So(meetings[0].Date, ShouldEqual, d(2025, 12, 10))
				So(meetings[0].DaysUntil, ShouldEqual, 42)
			})
		})

		Convey("When listing from the day before a meeting", func() {
			meetings := svc.FedCalendar(context.Background(), d(2025, 10, 28))

			Convey("Then the next day's meeting is one day out", func() {
				So(len(meetings), ShouldEqual, 2)
				So(meetings[0].Date, ShouldEqual, d(2025, 10, 29))
				So(meetings[0].DaysUntil, ShouldEqual, 1)
				So(meetings[0].Emoji, ShouldEqual, "💤")
			})
		})

		Convey("When listing past the tables", func() {
			Convey("Then the calendar is empty", func() {
				So(svc.FedCalendar(context.Background(), d(2030, 1, 1)), ShouldBeEmpty)
			})
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service with a refresh interval", t, func() {
		feed := &fakeFeed{}
		svc := service.New(newFakeScorer(),
			service.WithVolatilityFeed(feed),
			service.WithRefreshInterval(time.Hour),
		)
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then the feed is refreshed right away", func() {
				So(err, ShouldBeNil)
				deadline := time.Now().Add(2 * time.Second)
				for feed.refreshes.Load() == 0 && time.Now().Before(deadline) {
					time.Sleep(10 * time.Millisecond)
				}
				So(feed.refreshes.Load(), ShouldBeGreaterThanOrEqualTo, 1)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["refreshInterval"], ShouldEqual, "1h0m0s")
			})

			Convey("And starting twice is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And stopping marks it stopped", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given a service without a feed", t, func() {
		svc := service.New(newFakeScorer(),
			service.WithClock(func() time.Time { return time.Date(2024, 3, 23, 3, 0, 0, 0, time.UTC) }),
			service.WithLocation(time.FixedZone("EST", -5*3600)),
		)

		Convey("Then it starts without scheduling anything", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			svc.Stop()
		})

		Convey("Then today follows the configured zone", func() {
			So(svc.Today(), ShouldEqual, d(2024, 3, 22))
		})
	})
}
