package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	service "github.com/okian/catalyst/internal/app"
	"github.com/okian/catalyst/internal/config"
	"github.com/okian/catalyst/internal/domain/calendar"
	"github.com/okian/catalyst/internal/domain/scoring"
)

const rule = "=================================================="

// report prints the score for the date in args, or today.
func report(ctx context.Context, cfg *config.Config, args []string, w io.Writer) error {
	svc, err := build(cfg)
	if err != nil {
		return err
	}

	date := svc.Today()
	if len(args) == 1 {
		if date, err = calendar.ParseDate(args[0]); err != nil {
			return err
		}
	}

	writeReport(w, svc.Dashboard(ctx, date))
	return nil
}

// writeReport renders a dashboard as plain text.
func writeReport(w io.Writer, d service.Dashboard) {
	res := d.Result
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Entry Score for %s (%s)\n", calendar.Format(d.Date), d.Date.Weekday())
	fmt.Fprintln(w, rule)

	if d.VIX.Available {
		fmt.Fprintf(w, "VIX: %.2f (%s) as of %s\n", d.VIX.Value, d.VIX.Status, calendar.Format(d.VIX.Date))
	} else {
		fmt.Fprintln(w, "VIX: unavailable")
	}
	fmt.Fprintln(w)

	if !res.Computed() {
		fmt.Fprintf(w, "TOTAL SCORE: %s\n", d.ScoreLabel)
		fmt.Fprintf(w, "Reason: %s\n", d.Error)
		return
	}

	check(w, res.Breakdown.FedMeeting, scoring.WeightFedMeeting, "Fed meeting date", "Not a Fed meeting")
	vixOK := "VIX below threshold"
	if r := res.Details.Volatility; r != nil {
		vixOK = fmt.Sprintf("VIX below %g (%.2f)", r.Threshold, r.Observation.Close)
	}
	check(w, res.Breakdown.VIXLow, scoring.WeightVolatility, vixOK, "VIX NOT below threshold")
	check(w, res.Breakdown.Earnings, scoring.WeightEarnings, "Big tech earnings nearby", "No earnings overlap")
	for _, m := range res.Details.EarningsMatches {
		fmt.Fprintf(w, "    %s reports %s (%d days)\n", m.Symbol, calendar.Format(m.Date), m.DaysApart)
	}
	if len(res.Details.FailedSymbols) > 0 {
		fmt.Fprintf(w, "    lookup failed: %s\n", strings.Join(res.Details.FailedSymbols, ", "))
	}
	check(w, res.Breakdown.EconomicData, scoring.WeightEconomicData, "Economic data nearby", "No economic data")
	for _, n := range res.Details.Notes {
		fmt.Fprintf(w, "  note: %s\n", n)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "TOTAL SCORE: %s\n", d.ScoreLabel)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Conviction Level: %s\n", res.Conviction)
	fmt.Fprintf(w, "Outlook: %s %s\n", d.Risk.Emoji, d.Risk.Description)

	if n := d.NextHighRisk; n != nil {
		fmt.Fprintf(w, "Next high risk: %s %s (%d days)\n", n.Date.Format("January 02"), n.Label, n.DaysAway)
	}
}

func check(w io.Writer, ok bool, weight int, yes, no string) {
	if ok {
		fmt.Fprintf(w, "✓ %s: +%d points\n", yes, weight)
		return
	}
	fmt.Fprintf(w, "✗ %s: 0 points\n", no)
}
