package document

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockInvoiceRepository struct {
	mock.Mock
	invoice.Repository
}

func (m *mockInvoiceRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*invoice.Invoice, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
	identity.UserRepository
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

type mockSessionRepository struct {
	mock.Mock
	identity.SessionRepository
}

func (m *mockSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Session), args.Error(1)
}

type stubSignatures struct{ url string }

func (s stubSignatures) SignatureDataURL(context.Context, *identity.User) (string, error) {
	return s.url, nil
}

type recordingRenderer struct {
	requests []*printing.RenderRequest
}

func (r *recordingRenderer) Render(_ context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	r.requests = append(r.requests, req)
	return &printing.RenderResult{PDFData: []byte("%PDF-1.4 test"), PageCount: 1}, nil
}

func (r *recordingRenderer) Close() error { return nil }

type fixture struct {
	svc       *Service
	invoices  *mockInvoiceRepository
	users     *mockUserRepository
	sessions  *mockSessionRepository
	jwt       *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist
	renderer  *recordingRenderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	engine, err := printing.NewTemplateEngine()
	require.NoError(t, err)

	f := &fixture{
		invoices:  new(mockInvoiceRepository),
		users:     new(mockUserRepository),
		sessions:  new(mockSessionRepository),
		jwt:       auth.NewJWTService(config.JWTConfig{Secret: "document-test-secret-0123456789abcdef", Issuer: "invoicer-test"}),
		blacklist: auth.NewInMemoryTokenBlacklist(),
		renderer:  &recordingRenderer{},
	}
	f.svc = NewService(Deps{
		Invoices:   f.invoices,
		Users:      f.users,
		Sessions:   f.sessions,
		JWT:        f.jwt,
		Blacklist:  f.blacklist,
		Signatures: stubSignatures{url: "data:image/png;base64,iVBORw0KGgo="},
		Engine:     engine,
		Renderer:   f.renderer,
		PublicURL:  "https://invoices.example.com/",
	})
	return f
}

func sampleInvoice(owner uuid.UUID) *invoice.Invoice {
	id := uuid.New()
	inv := &invoice.Invoice{
		ClientID:    uuid.New(),
		Series:      "INV",
		Number:      42,
		InvoiceDate: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC),
		Notes:       "Thank you",
		Status:      invoice.StatusSent,
		Total:       decimal.NewFromInt(200),
		Items: []invoice.Item{{
			InvoiceID:   id,
			Description: "Consulting",
			Unit:        "h",
			Quantity:    decimal.NewFromInt(2),
			Price:       decimal.NewFromInt(100),
			Total:       decimal.NewFromInt(200),
		}},
		Client: &client.Client{Name: "UAB Pirkejas", Notes: "private remark"},
	}
	inv.ID = id
	inv.UserID = owner
	return inv
}

func TestService_Link(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner, sessionID := uuid.New(), uuid.New()
	inv := sampleInvoice(owner)
	f.invoices.On("FindByIDForUser", ctx, owner, inv.ID).Return(inv, nil)

	link, err := f.svc.Link(ctx, owner, sessionID, inv.ID)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.URL, "https://invoices.example.com/api/v1/invoices/"+inv.ID.String()+"/pdf?token="))
	assert.WithinDuration(t, time.Now().Add(auth.DefaultDocumentTokenExpiration), link.ExpiresAt, 5*time.Second)

	claims, err := f.jwt.ValidateDocumentToken(link.Token)
	require.NoError(t, err)
	assert.Equal(t, inv.ID.String(), claims.InvoiceID)
	assert.Equal(t, sessionID.String(), claims.SessionID)
}

func TestService_Link_NotOwned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner, id := uuid.New(), uuid.New()
	f.invoices.On("FindByIDForUser", ctx, owner, id).Return(nil, invoice.ErrNotFound)

	_, err := f.svc.Link(ctx, owner, uuid.New(), id)

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_Authorize(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	invoiceID := uuid.New()

	t.Run("missing token", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Authorize(ctx, "")
		assert.ErrorIs(t, err, ErrTokenRequired)
	})

	t.Run("access tokens are refused", func(t *testing.T) {
		f := newFixture(t)
		issued, err := f.jwt.GenerateAccessToken(owner, uuid.New(), time.Now().Add(time.Hour))
		require.NoError(t, err)

		_, err = f.svc.Authorize(ctx, issued.Token)
		assert.Equal(t, ErrInvalidToken, err)
	})

	t.Run("live session", func(t *testing.T) {
		f := newFixture(t)
		session := identity.NewSession(owner, "laptop", time.Now())
		f.sessions.On("FindByID", ctx, session.ID).Return(session, nil)
		issued, err := f.jwt.GenerateDocumentToken(owner, session.ID, invoiceID)
		require.NoError(t, err)

		p, err := f.svc.Authorize(ctx, issued.Token)

		require.NoError(t, err)
		assert.Equal(t, owner, p.UserID)
		assert.Equal(t, invoiceID, p.InvoiceID)
	})

	t.Run("deleted session", func(t *testing.T) {
		f := newFixture(t)
		sessionID := uuid.New()
		f.sessions.On("FindByID", ctx, sessionID).Return(nil, shared.ErrNotFound)
		issued, err := f.jwt.GenerateDocumentToken(owner, sessionID, invoiceID)
		require.NoError(t, err)

		_, err = f.svc.Authorize(ctx, issued.Token)
		assert.Equal(t, ErrInvalidToken, err)
	})

	t.Run("expired session", func(t *testing.T) {
		f := newFixture(t)
		session := identity.NewSession(owner, "laptop", time.Now().Add(-identity.SessionLifetime-time.Minute))
		f.sessions.On("FindByID", ctx, session.ID).Return(session, nil)
		issued, err := f.jwt.GenerateDocumentToken(owner, session.ID, invoiceID)
		require.NoError(t, err)

		_, err = f.svc.Authorize(ctx, issued.Token)
		assert.Equal(t, ErrInvalidToken, err)
	})

	t.Run("revoked session", func(t *testing.T) {
		f := newFixture(t)
		session := identity.NewSession(owner, "laptop", time.Now())
		f.sessions.On("FindByID", ctx, session.ID).Return(session, nil)
		require.NoError(t, f.blacklist.RevokeSession(ctx, session.ID.String(), time.Hour))
		issued, err := f.jwt.GenerateDocumentToken(owner, session.ID, invoiceID)
		require.NoError(t, err)

		_, err = f.svc.Authorize(ctx, issued.Token)
		assert.Equal(t, ErrInvalidToken, err)
	})
}

func TestService_Render(t *testing.T) {
	ctx := context.Background()
	seller, err := identity.NewUser("UAB Pardavejas", "seller@example.com", "secret123")
	require.NoError(t, err)
	seller.BankAccount = "LT12 1000 0111 0100 1000"
	inv := sampleInvoice(seller.ID)

	t.Run("prints the invoice", func(t *testing.T) {
		f := newFixture(t)
		f.invoices.On("FindByIDForUser", mock.Anything, seller.ID, inv.ID).Return(inv, nil)
		f.users.On("FindByID", mock.Anything, seller.ID).Return(seller, nil)

		file, err := f.svc.Render(ctx, &Principal{UserID: seller.ID, InvoiceID: inv.ID}, inv.ID)

		require.NoError(t, err)
		assert.Equal(t, "invoice-INV-42.pdf", file.Name)
		assert.Equal(t, ContentTypePDF, file.ContentType)
		assert.Equal(t, []byte("%PDF-1.4 test"), file.Data)

		require.Len(t, f.renderer.requests, 1)
		html := f.renderer.requests[0].HTML
		assert.Contains(t, html, "0000042")
		assert.Contains(t, html, "UAB Pirkejas")
		assert.Contains(t, html, "Consulting")
		assert.Contains(t, html, "data:image/png;base64,iVBORw0KGgo=")
		assert.NotContains(t, html, "private remark")
		assert.Equal(t, "INV 0000042", f.renderer.requests[0].Title)
	})

	t.Run("token for another invoice", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Render(ctx, &Principal{UserID: seller.ID, InvoiceID: uuid.New()}, inv.ID)

		assert.ErrorIs(t, err, ErrNotFound)
		assert.Empty(t, f.renderer.requests)
	})

	t.Run("another owner's invoice", func(t *testing.T) {
		f := newFixture(t)
		stranger := uuid.New()
		f.invoices.On("FindByIDForUser", mock.Anything, stranger, inv.ID).Return(nil, invoice.ErrNotFound)

		_, err := f.svc.Render(ctx, &Principal{UserID: stranger, InvoiceID: inv.ID}, inv.ID)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}
