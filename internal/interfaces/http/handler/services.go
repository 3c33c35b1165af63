package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	clientapp "github.com/invoicer/backend/internal/application/client"
	"github.com/invoicer/backend/internal/application/document"
	identityapp "github.com/invoicer/backend/internal/application/identity"
	invoiceapp "github.com/invoicer/backend/internal/application/invoice"
	reportapp "github.com/invoicer/backend/internal/application/report"
	"github.com/invoicer/backend/internal/domain/shared"
)

// The handlers depend on these narrow views of the application services.
// The concrete services in internal/application satisfy them.

// AuthService is the identity use case set behind /auth
type AuthService interface {
	Register(ctx context.Context, in identityapp.RegisterInput) (*identityapp.AuthResult, error)
	Login(ctx context.Context, in identityapp.LoginInput) (*identityapp.AuthResult, error)
	Logout(ctx context.Context, userID, sessionID uuid.UUID, ttl time.Duration) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error
	Me(ctx context.Context, userID uuid.UUID) (*identityapp.UserResponse, error)
	Sessions(ctx context.Context, userID, currentSessionID uuid.UUID) ([]identityapp.SessionResponse, error)
	DeleteSession(ctx context.Context, userID, currentSessionID, id uuid.UUID) error
	ChangePassword(ctx context.Context, in identityapp.ChangePasswordInput) (*identityapp.AuthResult, error)
}

// ProfileService is the seller profile use case set behind /profile
type ProfileService interface {
	Get(ctx context.Context, userID uuid.UUID) (*identityapp.UserResponse, error)
	Update(ctx context.Context, userID uuid.UUID, req identityapp.ProfileRequest) (*identityapp.UserResponse, error)
	UploadSignature(ctx context.Context, userID uuid.UUID, data []byte) (*identityapp.SignatureResponse, error)
	DeleteSignature(ctx context.Context, userID uuid.UUID) error
}

// ClientService is the client registry behind /clients
type ClientService interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]clientapp.ClientResponse, error)
	Create(ctx context.Context, ownerID uuid.UUID, req clientapp.ClientRequest) (*clientapp.ClientResponse, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*clientapp.ClientResponse, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, req clientapp.ClientRequest) (*clientapp.ClientResponse, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	Stats(ctx context.Context, ownerID uuid.UUID) ([]clientapp.ClientStatsResponse, error)
}

// InvoiceService is the invoice ledger behind /invoices
type InvoiceService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req invoiceapp.InvoiceRequest) (*invoiceapp.InvoiceResponse, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*invoiceapp.InvoiceResponse, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, req invoiceapp.InvoiceRequest) (*invoiceapp.InvoiceResponse, error)
	UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, req invoiceapp.StatusRequest) (*invoiceapp.InvoiceResponse, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, q invoiceapp.ListQuery) (*shared.Paginated[invoiceapp.InvoiceResponse], error)
	Months(ctx context.Context, ownerID uuid.UUID) ([]string, error)
	Unpaid(ctx context.Context, ownerID uuid.UUID) ([]invoiceapp.InvoiceResponse, error)
}

// ReportService serves the dashboard statistics
type ReportService interface {
	Stats(ctx context.Context, ownerID uuid.UUID, period string) (*reportapp.StatsResponse, error)
	Activity(ctx context.Context, ownerID uuid.UUID) ([]reportapp.ActivityResponse, error)
}

// DocumentService issues document links and renders invoice PDFs
type DocumentService interface {
	Link(ctx context.Context, userID, sessionID, invoiceID uuid.UUID) (*document.LinkResponse, error)
	Authorize(ctx context.Context, token string) (*document.Principal, error)
	Render(ctx context.Context, p *document.Principal, invoiceID uuid.UUID) (*document.File, error)
}

var (
	_ AuthService     = (*identityapp.AuthService)(nil)
	_ ProfileService  = (*identityapp.ProfileService)(nil)
	_ ClientService   = (*clientapp.ClientService)(nil)
	_ InvoiceService  = (*invoiceapp.InvoiceService)(nil)
	_ ReportService   = (*reportapp.ReportService)(nil)
	_ DocumentService = (*document.Service)(nil)
)
