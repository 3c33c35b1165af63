package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Sort fields accepted by the invoice list
const (
	SortByInvoiceDate = "invoice_date"
	SortByTotal       = "total"
	SortByNumber      = "number"
	SortByClientName  = "client_name"
)

// ListFilter selects a page of a user's invoices.
// The owner scope is applied by the repository before any of these filters.
type ListFilter struct {
	shared.Filter
	Month    *MonthRange
	ClientID *uuid.UUID
	Status   *Status
}

// NewListFilter returns a filter sorted by invoice date, newest first
func NewListFilter() ListFilter {
	f := shared.DefaultFilter()
	f.OrderBy = SortByInvoiceDate
	return ListFilter{Filter: f}
}

// Amount is the (date, total) pair used by statistics
type Amount struct {
	InvoiceDate time.Time
	Total       decimal.Decimal
}

// Repository is the ledger store. Every method is scoped to the owning user.
type Repository interface {
	// CreateNumbered reserves the owner's next number, then writes the header and
	// items. All three effects commit together or not at all.
	CreateNumbered(ctx context.Context, inv *Invoice) error

	// Replace overwrites header fields and the whole item set in one transaction
	Replace(ctx context.Context, inv *Invoice) error

	// UpdateStatus sets the status of an owned invoice
	UpdateStatus(ctx context.Context, userID, id uuid.UUID, status Status) error

	// DeleteForUser removes the items and then the invoice
	DeleteForUser(ctx context.Context, userID, id uuid.UUID) error

	// FindByIDForUser loads the invoice with client and items; ErrNotFound for other owners
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Invoice, error)

	// List returns a page of invoices with their clients attached and the total row count
	List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]Invoice, int64, error)

	// InvoiceDates returns the invoice dates of all the user's invoices
	InvoiceDates(ctx context.Context, userID uuid.UUID) ([]time.Time, error)

	// FindUnpaid returns invoices not yet paid, earliest due date first
	FindUnpaid(ctx context.Context, userID uuid.UUID) ([]Invoice, error)

	// FindLatest returns the most recently created invoices with clients attached
	FindLatest(ctx context.Context, userID uuid.UUID, limit int) ([]Invoice, error)

	// AmountsBetween returns date and total of invoices dated in [from, to]
	AmountsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Amount, error)
}

// Invoice errors
var (
	ErrNotFound = shared.NewDomainError("NOT_FOUND", "Invoice not found")
)
