package client

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for client persistence.
// Every method is scoped to the owning user.
type Repository interface {
	// FindAllForUser returns the user's clients ordered by name
	FindAllForUser(ctx context.Context, userID uuid.UUID) ([]Client, error)

	// FindByIDForUser returns ErrNotFound when the client does not exist or belongs to another user
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Client, error)

	// FindLatestForUser returns the user's most recently created clients
	FindLatestForUser(ctx context.Context, userID uuid.UUID, limit int) ([]Client, error)

	Save(ctx context.Context, client *Client) error

	// DeleteForUser removes the client unless it has invoices, in which case ErrHasInvoices is returned
	DeleteForUser(ctx context.Context, userID, id uuid.UUID) error

	// StatsForUser returns per-client invoice rollups
	StatsForUser(ctx context.Context, userID uuid.UUID) ([]Stats, error)
}

// Stats is an invoice rollup for one client
type Stats struct {
	ClientID     uuid.UUID
	Name         string
	InvoiceCount int64
	TotalAmount  decimal.Decimal
	UnpaidAmount decimal.Decimal
}
