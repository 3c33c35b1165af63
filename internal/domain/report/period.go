package report

import (
	"time"
)

// Period selects the statistics window
type Period string

const (
	PeriodMonth      Period = "1m"
	PeriodThreeMonth Period = "3m"
	PeriodSixMonth   Period = "6m"
	PeriodNineMonth  Period = "9m"
	PeriodYear       Period = "1y"
)

// Granularity is the size of a chart bucket
type Granularity string

const (
	GranularityDay   Granularity = "date"
	GranularityMonth Granularity = "month"
)

// ParsePeriod maps a selector to a Period; unknown or empty values fall back to the current month
func ParsePeriod(s string) Period {
	switch p := Period(s); p {
	case PeriodMonth, PeriodThreeMonth, PeriodSixMonth, PeriodNineMonth, PeriodYear:
		return p
	}
	return PeriodMonth
}

// Window is the inclusive date range covered by a period
type Window struct {
	From        time.Time
	To          time.Time
	Granularity Granularity
}

// Window resolves the period against now. Dates are calendar dates in UTC.
// The window closes at the end of the current month, or of the current year
// for 1y, so invoices dated later in the last bucket still count.
func (p Period) Window(now time.Time) Window {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	monthEnd := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)

	w := Window{To: monthEnd, Granularity: GranularityMonth}
	switch p {
	case PeriodThreeMonth:
		w.From = today.AddDate(0, -3, 0)
	case PeriodSixMonth:
		w.From = today.AddDate(0, -6, 0)
	case PeriodNineMonth:
		w.From = today.AddDate(0, -9, 0)
	case PeriodYear:
		w.From = time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		w.To = time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC)
	default:
		w.From = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		w.Granularity = GranularityDay
	}
	return w
}

// Label formats a date as its bucket key
func (g Granularity) Label(d time.Time) string {
	if g == GranularityDay {
		return d.Format("2006-01-02")
	}
	return d.Format("2006-01")
}
