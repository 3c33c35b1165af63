package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/report"
	"github.com/shopspring/decimal"
)

// ChartPoint is one bucket of the statistics chart. Exactly one of Date
// (daily buckets) and Month (monthly buckets) is set.
type ChartPoint struct {
	Date  string          `json:"date,omitempty"`
	Month string          `json:"month,omitempty"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// SummaryResponse totals the whole statistics window
type SummaryResponse struct {
	TotalInvoices int64           `json:"total_invoices"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// StatsResponse is the statistics of one period
type StatsResponse struct {
	Period  string          `json:"period"`
	Chart   []ChartPoint    `json:"chart"`
	Summary SummaryResponse `json:"summary"`
}

// ToStatsResponse converts aggregated domain stats
func ToStatsResponse(s report.Stats) StatsResponse {
	chart := make([]ChartPoint, len(s.Chart))
	for i, b := range s.Chart {
		p := ChartPoint{Count: b.Count, Total: b.Total}
		if s.Granularity == report.GranularityDay {
			p.Date = b.Label
		} else {
			p.Month = b.Label
		}
		chart[i] = p
	}
	return StatsResponse{
		Period: string(s.Period),
		Chart:  chart,
		Summary: SummaryResponse{
			TotalInvoices: s.Summary.TotalInvoices,
			TotalAmount:   s.Summary.TotalAmount,
		},
	}
}

// ActivityResponse is one entry of the recent activity feed
type ActivityResponse struct {
	Type     string           `json:"type"`
	ID       uuid.UUID        `json:"id"`
	Title    string           `json:"title"`
	Subtitle string           `json:"subtitle,omitempty"`
	Total    *decimal.Decimal `json:"total,omitempty"`
	Date     time.Time        `json:"date"`
}
