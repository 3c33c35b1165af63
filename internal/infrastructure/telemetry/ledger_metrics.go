package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	AttrStatus    = attribute.Key("status")
	AttrOperation = attribute.Key("operation")
	AttrResult    = attribute.Key("result")

	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPRoute      = attribute.Key("http.route")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
)

// HTTPDurationBuckets are request latency boundaries in milliseconds
var HTTPDurationBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// LedgerMetrics records invoicing business metrics.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	invoicesCreated   *Counter
	invoicesDeleted   *Counter
	statusChanges     *Counter
	invoiceAmount     *Histogram
	documentsRendered *Counter
	renderDuration    *Histogram
	authAttempts      *Counter
}

// NewLedgerMetrics registers the invoicing instruments on meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	var (
		m   LedgerMetrics
		err error
	)
	if m.invoicesCreated, err = NewCounter(meter, "invoice_created_total", "Invoices created", "{invoice}"); err != nil {
		return nil, err
	}
	if m.invoicesDeleted, err = NewCounter(meter, "invoice_deleted_total", "Invoices deleted", "{invoice}"); err != nil {
		return nil, err
	}
	if m.statusChanges, err = NewCounter(meter, "invoice_status_changes_total", "Invoice status transitions", "{change}"); err != nil {
		return nil, err
	}
	if m.invoiceAmount, err = NewHistogram(meter, HistogramOpts{
		Name:        "invoice_amount",
		Description: "Total amount of created invoices",
		Unit:        "{EUR}",
		Buckets:     []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 50000},
	}); err != nil {
		return nil, err
	}
	if m.documentsRendered, err = NewCounter(meter, "invoice_documents_total", "Invoice documents exported", "{document}"); err != nil {
		return nil, err
	}
	if m.renderDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "invoice_document_render_duration",
		Description: "Time spent rendering invoice documents",
		Unit:        "ms",
		Buckets:     []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}); err != nil {
		return nil, err
	}
	if m.authAttempts, err = NewCounter(meter, "auth_attempts_total", "Login attempts", "{attempt}"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordInvoiceCreated counts a created invoice and its amount.
func (m *LedgerMetrics) RecordInvoiceCreated(ctx context.Context, total decimal.Decimal) {
	if m == nil {
		return
	}
	m.invoicesCreated.Inc(ctx)
	m.invoiceAmount.Record(ctx, total.InexactFloat64())
}

// RecordInvoiceDeleted counts a deleted invoice.
func (m *LedgerMetrics) RecordInvoiceDeleted(ctx context.Context) {
	if m == nil {
		return
	}
	m.invoicesDeleted.Inc(ctx)
}

// RecordStatusChange counts a status write to the given status.
func (m *LedgerMetrics) RecordStatusChange(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.statusChanges.Inc(ctx, AttrStatus.String(status))
}

// RecordDocument counts a document export attempt and its render time.
func (m *LedgerMetrics) RecordDocument(ctx context.Context, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.documentsRendered.Inc(ctx, AttrResult.String(result))
	if d > 0 {
		m.renderDuration.RecordDuration(ctx, d)
	}
}

// RecordLogin counts a login attempt by result.
func (m *LedgerMetrics) RecordLogin(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.authAttempts.Inc(ctx, AttrOperation.String("login"), AttrResult.String(result))
}
