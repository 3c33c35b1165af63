package integration

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	clientapp "github.com/invoicer/backend/internal/application/client"
	"github.com/invoicer/backend/internal/application/document"
	identityapp "github.com/invoicer/backend/internal/application/identity"
	invoiceapp "github.com/invoicer/backend/internal/application/invoice"
	reportapp "github.com/invoicer/backend/internal/application/report"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/invoicer/backend/internal/infrastructure/storage"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/invoicer/backend/internal/interfaces/http/router"
	"github.com/invoicer/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// PublicURL is the base of document links issued by the test server
const PublicURL = "http://invoicer.test"

// stubRenderer records the HTML it was asked to print instead of driving Chrome
type stubRenderer struct {
	mu    sync.Mutex
	pages []string
}

func (r *stubRenderer) Render(_ context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = append(r.pages, req.HTML)
	return &printing.RenderResult{PDFData: []byte("%PDF-1.7 " + req.Title), PageCount: 1}, nil
}

func (r *stubRenderer) Close() error { return nil }

// LastHTML returns the most recently rendered document
func (r *stubRenderer) LastHTML() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pages) == 0 {
		return ""
	}
	return r.pages[len(r.pages)-1]
}

// TestServer is the full HTTP stack on top of a test database
type TestServer struct {
	DB       *TestDB
	Engine   *gin.Engine
	API      *testutil.APIClient
	Renderer *stubRenderer
	Objects  *storage.MemoryObjectStorage
}

// ServerOption adjusts the stack before it is built
type ServerOption func(*serverOptions)

type serverOptions struct {
	blacklist   auth.TokenBlacklist
	authLimiter middleware.Limiter
}

// WithBlacklist replaces the in-memory token blacklist
func WithBlacklist(b auth.TokenBlacklist) ServerOption {
	return func(o *serverOptions) {
		o.blacklist = b
	}
}

// WithAuthLimiter throttles register and login
func WithAuthLimiter(l middleware.Limiter) ServerOption {
	return func(o *serverOptions) {
		o.authLimiter = l
	}
}

// NewTestServer wires repositories, services and handlers the way the
// server binary does, with a stub PDF renderer and in-memory object storage
func NewTestServer(t *testing.T, db *TestDB, opts ...ServerOption) *TestServer {
	t.Helper()

	o := serverOptions{blacklist: auth.NewInMemoryTokenBlacklist()}
	for _, opt := range opts {
		opt(&o)
	}

	log := zap.NewNop()
	middleware.SetupValidator()

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                  "integration-secret-key-with-enough-entropy",
		Issuer:                  "invoicer-test",
		SessionLifetime:         7 * 24 * time.Hour,
		DocumentTokenExpiration: 5 * time.Minute,
	})

	userRepo := persistence.NewGormUserRepository(db.DB)
	sessionRepo := persistence.NewGormSessionRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)

	objects := storage.NewMemoryObjectStorage()
	renderer := &stubRenderer{}
	templates, err := printing.NewTemplateEngine(printing.WithLocale("en"), printing.WithCurrency("EUR"))
	require.NoError(t, err)

	profileService := identityapp.NewProfileService(userRepo, objects, log)
	invoiceService := invoiceapp.NewInvoiceService(invoiceRepo, clientRepo, nil, log)
	documentService := document.NewService(document.Deps{
		Invoices:   invoiceRepo,
		Users:      userRepo,
		Sessions:   sessionRepo,
		JWT:        jwtService,
		Blacklist:  o.blacklist,
		Signatures: profileService,
		Engine:     templates,
		Renderer:   renderer,
		PublicURL:  PublicURL,
		Logger:     log,
	})

	authenticate := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: o.blacklist,
		Sessions:       sessionRepo,
		Logger:         log,
	})

	guards := router.Guards{Authenticate: authenticate}
	if o.authLimiter != nil {
		guards.Credentials = middleware.RateLimit(o.authLimiter, middleware.ClientIPKey, log)
	}

	systemHandler := handler.NewSystemHandler("invoicer", "test", &persistence.Database{DB: db.DB})
	engine := router.NewEngine(router.EngineConfig{
		Logger: log,
		HTTP:   config.HTTPConfig{MaxBodySize: 4 << 20},
		Health: systemHandler.Health,
	})

	r := router.NewRouter(engine)
	router.RegisterAPI(r, router.Handlers{
		System:   systemHandler,
		Auth:     handler.NewAuthHandler(identityapp.NewAuthService(userRepo, sessionRepo, jwtService, o.blacklist, nil, log)),
		Profile:  handler.NewProfileHandler(profileService),
		Client:   handler.NewClientHandler(clientapp.NewClientService(clientRepo, log)),
		Invoice:  handler.NewInvoiceHandler(invoiceService, documentService),
		Document: handler.NewDocumentHandler(documentService),
		Report:   handler.NewReportHandler(reportapp.NewReportService(invoiceRepo, clientRepo)),
	}, guards)
	r.Setup()

	return &TestServer{
		DB:       db,
		Engine:   engine,
		API:      testutil.NewAPIClient(engine),
		Renderer: renderer,
		Objects:  objects,
	}
}

// Seller is a registered account and its bearer token
type Seller struct {
	ID    uuid.UUID
	Email string
	Token string
	API   *testutil.APIClient
}

type authPayload struct {
	User struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

// Register creates a seller through the API
func (s *TestServer) Register(t *testing.T, name string) *Seller {
	t.Helper()

	email := testutil.UniqueEmail(name)
	w := s.API.Do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":                  name,
		"email":                 email,
		"password":              "correct-horse",
		"password_confirmation": "correct-horse",
		"device_name":           "integration",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	p := testutil.DecodeData[authPayload](t, w)
	return &Seller{ID: p.User.ID, Email: email, Token: p.Token, API: s.API.WithToken(p.Token)}
}

// Login opens another session for an existing seller
func (s *TestServer) Login(t *testing.T, email, device string) string {
	t.Helper()

	w := s.API.Do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":       email,
		"password":    "correct-horse",
		"device_name": device,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return testutil.DecodeData[authPayload](t, w).Token
}

// CreateClient adds a client for the seller and returns its id
func (s *Seller) CreateClient(t *testing.T, name string) uuid.UUID {
	t.Helper()

	w := s.API.Do(t, http.MethodPost, "/api/v1/clients", map[string]string{
		"name":     name,
		"email":    "billing@" + name + ".test",
		"vat_code": "LT" + name,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.DecodeData[struct {
		ID uuid.UUID `json:"id"`
	}](t, w).ID
}

// Invoice is the subset of the invoice payload the suites inspect
type Invoice struct {
	ID            uuid.UUID       `json:"id"`
	ClientID      uuid.UUID       `json:"client_id"`
	Series        string          `json:"series"`
	Number        int64           `json:"number"`
	DisplayNumber string          `json:"display_number"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	Items         []struct {
		Description string          `json:"description"`
		Total       decimal.Decimal `json:"total"`
	} `json:"items"`
}

// InvoiceBody builds a create or update request for clientID
func InvoiceBody(clientID uuid.UUID, date string, items ...[2]string) map[string]interface{} {
	lines := make([]map[string]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, map[string]string{
			"description": "Consulting",
			"unit":        "h",
			"quantity":    it[0],
			"price":       it[1],
		})
	}
	return map[string]interface{}{
		"client_id":    clientID.String(),
		"invoice_date": date,
		"due_date":     date,
		"items":        lines,
	}
}

// CreateInvoice posts an invoice and returns the stored payload
func (s *Seller) CreateInvoice(t *testing.T, body map[string]interface{}) Invoice {
	t.Helper()

	w := s.API.Do(t, http.MethodPost, "/api/v1/invoices", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.DecodeData[Invoice](t, w)
}
