package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/report"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

// ReportService provides the read-only rollups over the ledger
type ReportService struct {
	invoices invoice.Repository
	clients  client.Repository
	now      func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(invoices invoice.Repository, clients client.Repository) *ReportService {
	return &ReportService{
		invoices: invoices,
		clients:  clients,
		now:      time.Now,
	}
}

// Stats buckets the owner's invoices of the selected period.
// Unknown or empty period selectors fall back to the current month.
func (s *ReportService) Stats(ctx context.Context, ownerID uuid.UUID, period string) (*StatsResponse, error) {
	p := report.ParsePeriod(period)
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "stats",
		telemetry.AttrUserID.String(ownerID.String()),
		telemetry.AttrPeriod.String(string(p)),
	)
	defer span.End()

	w := p.Window(s.now())
	amounts, err := s.invoices.AmountsBetween(ctx, ownerID, w.From, w.To)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	points := make([]report.Point, len(amounts))
	for i, a := range amounts {
		points[i] = report.Point{Date: a.InvoiceDate, Total: a.Total}
	}

	resp := ToStatsResponse(report.Aggregate(p, w, points))
	return &resp, nil
}

// Activity returns the latest clients and invoices merged into one feed,
// newest first
func (s *ReportService) Activity(ctx context.Context, ownerID uuid.UUID) ([]ActivityResponse, error) {
	clients, err := s.clients.FindLatestForUser(ctx, ownerID, report.ActivityLimit)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoices.FindLatest(ctx, ownerID, report.ActivityLimit)
	if err != nil {
		return nil, err
	}

	clientEntries := make([]report.Activity, len(clients))
	for i, c := range clients {
		clientEntries[i] = report.Activity{
			Type:  report.ActivityClient,
			ID:    c.ID,
			Title: c.Name,
			Date:  c.CreatedAt,
		}
	}

	invoiceEntries := make([]report.Activity, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		total := inv.Total
		entry := report.Activity{
			Type:  report.ActivityInvoice,
			ID:    inv.ID,
			Title: fmt.Sprintf("%s %d", inv.Series, inv.Number),
			Total: &total,
			Date:  inv.CreatedAt,
		}
		if inv.Client != nil {
			entry.Subtitle = inv.Client.Name
		}
		invoiceEntries[i] = entry
	}

	feed := report.MergeActivity(report.ActivityLimit, clientEntries, invoiceEntries)
	out := make([]ActivityResponse, len(feed))
	for i, a := range feed {
		out[i] = ActivityResponse{
			Type:     string(a.Type),
			ID:       a.ID,
			Title:    a.Title,
			Subtitle: a.Subtitle,
			Total:    a.Total,
			Date:     a.Date,
		}
	}
	return out, nil
}
