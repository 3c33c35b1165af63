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
	"github.com/stretchr/testify/mock"
)

// MockAuthService implements AuthService for testing
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in identityapp.RegisterInput) (*identityapp.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, in identityapp.LoginInput) (*identityapp.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.AuthResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, userID, sessionID uuid.UUID, ttl time.Duration) error {
	args := m.Called(ctx, userID, sessionID, ttl)
	return args.Error(0)
}

func (m *MockAuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, userID uuid.UUID) (*identityapp.UserResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserResponse), args.Error(1)
}

func (m *MockAuthService) Sessions(ctx context.Context, userID, currentSessionID uuid.UUID) ([]identityapp.SessionResponse, error) {
	args := m.Called(ctx, userID, currentSessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identityapp.SessionResponse), args.Error(1)
}

func (m *MockAuthService) DeleteSession(ctx context.Context, userID, currentSessionID, id uuid.UUID) error {
	args := m.Called(ctx, userID, currentSessionID, id)
	return args.Error(0)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, in identityapp.ChangePasswordInput) (*identityapp.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.AuthResult), args.Error(1)
}

// MockProfileService implements ProfileService for testing
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Get(ctx context.Context, userID uuid.UUID) (*identityapp.UserResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserResponse), args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, userID uuid.UUID, req identityapp.ProfileRequest) (*identityapp.UserResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserResponse), args.Error(1)
}

func (m *MockProfileService) UploadSignature(ctx context.Context, userID uuid.UUID, data []byte) (*identityapp.SignatureResponse, error) {
	args := m.Called(ctx, userID, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.SignatureResponse), args.Error(1)
}

func (m *MockProfileService) DeleteSignature(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockClientService implements ClientService for testing
type MockClientService struct {
	mock.Mock
}

func (m *MockClientService) List(ctx context.Context, ownerID uuid.UUID) ([]clientapp.ClientResponse, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clientapp.ClientResponse), args.Error(1)
}

func (m *MockClientService) Create(ctx context.Context, ownerID uuid.UUID, req clientapp.ClientRequest) (*clientapp.ClientResponse, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.ClientResponse), args.Error(1)
}

func (m *MockClientService) Get(ctx context.Context, ownerID, id uuid.UUID) (*clientapp.ClientResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.ClientResponse), args.Error(1)
}

func (m *MockClientService) Update(ctx context.Context, ownerID, id uuid.UUID, req clientapp.ClientRequest) (*clientapp.ClientResponse, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.ClientResponse), args.Error(1)
}

func (m *MockClientService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockClientService) Stats(ctx context.Context, ownerID uuid.UUID) ([]clientapp.ClientStatsResponse, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clientapp.ClientStatsResponse), args.Error(1)
}

// MockInvoiceService implements InvoiceService for testing
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Create(ctx context.Context, ownerID uuid.UUID, req invoiceapp.InvoiceRequest) (*invoiceapp.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoiceapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) Get(ctx context.Context, ownerID, id uuid.UUID) (*invoiceapp.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoiceapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) Update(ctx context.Context, ownerID, id uuid.UUID, req invoiceapp.InvoiceRequest) (*invoiceapp.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoiceapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, req invoiceapp.StatusRequest) (*invoiceapp.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoiceapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockInvoiceService) List(ctx context.Context, ownerID uuid.UUID, q invoiceapp.ListQuery) (*shared.Paginated[invoiceapp.InvoiceResponse], error) {
	args := m.Called(ctx, ownerID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[invoiceapp.InvoiceResponse]), args.Error(1)
}

func (m *MockInvoiceService) Months(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockInvoiceService) Unpaid(ctx context.Context, ownerID uuid.UUID) ([]invoiceapp.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoiceapp.InvoiceResponse), args.Error(1)
}

// MockReportService implements ReportService for testing
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Stats(ctx context.Context, ownerID uuid.UUID, period string) (*reportapp.StatsResponse, error) {
	args := m.Called(ctx, ownerID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapp.StatsResponse), args.Error(1)
}

func (m *MockReportService) Activity(ctx context.Context, ownerID uuid.UUID) ([]reportapp.ActivityResponse, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reportapp.ActivityResponse), args.Error(1)
}

// MockDocumentService implements DocumentService for testing
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Link(ctx context.Context, userID, sessionID, invoiceID uuid.UUID) (*document.LinkResponse, error) {
	args := m.Called(ctx, userID, sessionID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.LinkResponse), args.Error(1)
}

func (m *MockDocumentService) Authorize(ctx context.Context, token string) (*document.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Principal), args.Error(1)
}

func (m *MockDocumentService) Render(ctx context.Context, p *document.Principal, invoiceID uuid.UUID) (*document.File, error) {
	args := m.Called(ctx, p, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.File), args.Error(1)
}
