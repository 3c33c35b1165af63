package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Point is the raw input to bucketing: one invoice's date and total
type Point struct {
	Date  time.Time
	Total decimal.Decimal
}

// Bucket is one chart entry
type Bucket struct {
	Label string
	Count int64
	Total decimal.Decimal
}

// Summary totals the whole window
type Summary struct {
	TotalInvoices int64
	TotalAmount   decimal.Decimal
}

// Stats is the statistics result for one period
type Stats struct {
	Period      Period
	Granularity Granularity
	Chart       []Bucket
	Summary     Summary
}

// Aggregate buckets points by the window granularity, in ascending label order.
// Points outside the window are ignored.
func Aggregate(period Period, w Window, points []Point) Stats {
	byLabel := make(map[string]*Bucket)
	summary := Summary{TotalAmount: decimal.Zero}

	for _, p := range points {
		if p.Date.Before(w.From) || p.Date.After(w.To) {
			continue
		}
		label := w.Granularity.Label(p.Date)
		b, ok := byLabel[label]
		if !ok {
			b = &Bucket{Label: label, Total: decimal.Zero}
			byLabel[label] = b
		}
		b.Count++
		b.Total = b.Total.Add(p.Total)
		summary.TotalInvoices++
		summary.TotalAmount = summary.TotalAmount.Add(p.Total)
	}

	chart := make([]Bucket, 0, len(byLabel))
	for _, b := range byLabel {
		chart = append(chart, *b)
	}
	sort.Slice(chart, func(i, j int) bool { return chart[i].Label < chart[j].Label })

	return Stats{
		Period:      period,
		Granularity: w.Granularity,
		Chart:       chart,
		Summary:     summary,
	}
}
