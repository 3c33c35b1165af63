package client

import "github.com/invoicer/backend/internal/domain/shared"

// Client errors
var (
	ErrNotFound    = shared.NewDomainError("NOT_FOUND", "Client not found")
	ErrHasInvoices = shared.NewDomainError("CONFLICT", "Client has invoices and cannot be deleted")
)
