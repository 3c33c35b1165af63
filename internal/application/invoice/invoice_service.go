package invoice

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InvoiceService is the invoice ledger: it validates input, checks client
// ownership, computes totals and lets the repository reserve numbers.
type InvoiceService struct {
	invoices invoice.Repository
	clients  client.Repository
	metrics  *telemetry.LedgerMetrics
	logger   *zap.Logger
}

// NewInvoiceService creates a new InvoiceService. metrics may be nil.
func NewInvoiceService(
	invoices invoice.Repository,
	clients client.Repository,
	metrics *telemetry.LedgerMetrics,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoices: invoices,
		clients:  clients,
		metrics:  metrics,
		logger:   logger,
	}
}

// Create validates the request, reserves the owner's next number and stores
// the invoice with its items in one transaction.
func (s *InvoiceService) Create(ctx context.Context, ownerID uuid.UUID, req InvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create",
		telemetry.AttrUserID.String(ownerID.String()),
		telemetry.AttrItemsCount.Int(len(req.Items)),
	)
	defer span.End()

	input, err := req.ToInput()
	if err != nil {
		return nil, err
	}
	inv, err := invoice.NewInvoice(ownerID, input)
	if err != nil {
		return nil, err
	}

	c, err := s.clients.FindByIDForUser(ctx, ownerID, input.ClientID)
	if err != nil {
		return nil, err
	}

	if err := s.invoices.CreateNumbered(ctx, inv); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	inv.Client = c

	span.SetAttributes(
		telemetry.AttrInvoiceID.String(inv.ID.String()),
		telemetry.AttrInvoiceNumber.Int64(inv.Number),
	)
	s.metrics.RecordInvoiceCreated(ctx, inv.Total)
	s.logger.Info("Invoice created",
		zap.String("user_id", ownerID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("series", inv.Series),
		zap.Int64("number", inv.Number),
		zap.String("total", inv.Total.String()),
	)

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Get returns one invoice of the owner with its client and items
func (s *InvoiceService) Get(ctx context.Context, ownerID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoices.FindByIDForUser(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Update replaces the header and the whole item set. Series and number stay.
func (s *InvoiceService) Update(ctx context.Context, ownerID, id uuid.UUID, req InvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update",
		telemetry.AttrUserID.String(ownerID.String()),
		telemetry.AttrInvoiceID.String(id.String()),
	)
	defer span.End()

	input, err := req.ToInput()
	if err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.invoices.FindByIDForUser(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	c, err := s.clients.FindByIDForUser(ctx, ownerID, input.ClientID)
	if err != nil {
		return nil, err
	}

	if err := inv.Update(input); err != nil {
		return nil, err
	}
	if err := s.invoices.Replace(ctx, inv); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	inv.Client = c

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// UpdateStatus moves an owned invoice to any valid status
func (s *InvoiceService) UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, req StatusRequest) (*InvoiceResponse, error) {
	status, err := invoice.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	if err := s.invoices.UpdateStatus(ctx, ownerID, id, status); err != nil {
		return nil, err
	}
	s.metrics.RecordStatusChange(ctx, status.String())

	return s.Get(ctx, ownerID, id)
}

// Delete removes an owned invoice and its items
func (s *InvoiceService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.invoices.DeleteForUser(ctx, ownerID, id); err != nil {
		return err
	}
	s.metrics.RecordInvoiceDeleted(ctx)
	s.logger.Info("Invoice deleted",
		zap.String("user_id", ownerID.String()),
		zap.String("invoice_id", id.String()),
	)
	return nil
}

// List returns a page of the owner's invoices
func (s *InvoiceService) List(ctx context.Context, ownerID uuid.UUID, q ListQuery) (*shared.Paginated[InvoiceResponse], error) {
	filter, err := q.ToFilter()
	if err != nil {
		return nil, err
	}

	invoices, total, err := s.invoices.List(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(ToInvoiceResponses(invoices), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Months returns the distinct YYYY-MM months of the owner's invoices, newest first
func (s *InvoiceService) Months(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	dates, err := s.invoices.InvoiceDates(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return invoice.DistinctMonths(dates), nil
}

// Unpaid returns every invoice not yet paid, earliest due date first
func (s *InvoiceService) Unpaid(ctx context.Context, ownerID uuid.UUID) ([]InvoiceResponse, error) {
	invoices, err := s.invoices.FindUnpaid(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponses(invoices), nil
}
