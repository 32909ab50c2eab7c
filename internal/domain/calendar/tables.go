package calendar

// builtin holds the hand-maintained tables. Update once per year when the
// Federal Reserve and BLS publish the next year's schedules, or add years via
// the "calendars" configuration key.
//
// Sources:
//   - FOMC: federalreserve.gov/monetarypolicy/fomccalendars.htm (decision day)
//   - CPI:  bls.gov/schedule/news_release/cpi.htm
//   - NFP:  bls.gov/schedule/news_release/empsit.htm
var builtin = map[Category]map[int][]string{
	FedMeeting: {
		2023: {
			"2023-02-01", "2023-03-22", "2023-05-03", "2023-06-14",
			"2023-07-26", "2023-09-20", "2023-11-01", "2023-12-13",
		},
		2024: {
			"2024-01-31", "2024-03-20", "2024-05-01", "2024-06-12",
			"2024-07-31", "2024-09-18", "2024-11-07", "2024-12-18",
		},
		2025: {
			"2025-01-29", "2025-03-19", "2025-05-07", "2025-06-18",
			"2025-07-30", "2025-09-17", "2025-10-29", "2025-12-10",
		},
	},
	CPI: {
		2023: {
			"2023-01-12", "2023-02-14", "2023-03-14", "2023-04-12",
			"2023-05-10", "2023-06-13", "2023-07-12", "2023-08-10",
			"2023-09-13", "2023-10-12", "2023-11-14", "2023-12-12",
		},
		2024: {
			"2024-01-11", "2024-02-13", "2024-03-12", "2024-04-10",
			"2024-05-15", "2024-06-12", "2024-07-11", "2024-08-14",
			"2024-09-11", "2024-10-10", "2024-11-13", "2024-12-11",
		},
		2025: {
			"2025-01-15", "2025-02-12", "2025-03-12", "2025-04-10",
			"2025-05-13", "2025-06-11", "2025-07-11", "2025-08-13",
			"2025-09-10", "2025-10-15", "2025-11-12", "2025-12-10",
		},
	},
	NFP: {
		2023: {
			"2023-01-06", "2023-02-03", "2023-03-10", "2023-04-07",
			"2023-05-05", "2023-06-02", "2023-07-07", "2023-08-04",
			"2023-09-01", "2023-10-06", "2023-11-03", "2023-12-08",
		},
		2024: {
			"2024-01-05", "2024-02-02", "2024-03-08", "2024-04-05",
			"2024-05-03", "2024-06-07", "2024-07-05", "2024-08-02",
			"2024-09-06", "2024-10-04", "2024-11-01", "2024-12-06",
		},
		2025: {
			"2025-01-10", "2025-02-07", "2025-03-07", "2025-04-04",
			"2025-05-02", "2025-06-06", "2025-07-03", "2025-08-01",
			"2025-09-05", "2025-10-03", "2025-11-07", "2025-12-05",
		},
	},
}
