package document

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ContentTypePDF is the media type of rendered documents
const ContentTypePDF = "application/pdf"

// Document errors
var (
	ErrTokenRequired = shared.NewDomainError("UNAUTHORIZED", "Token required")
	ErrInvalidToken  = shared.NewDomainError("UNAUTHORIZED", "Invalid token")
	ErrNotFound      = shared.NewDomainError("NOT_FOUND", "Not found")
)

// SignatureSource resolves a seller's signature image as a data URL
type SignatureSource interface {
	SignatureDataURL(ctx context.Context, user *identity.User) (string, error)
}

// Service issues document links and renders invoice PDFs
type Service struct {
	invoices   invoice.Repository
	users      identity.UserRepository
	sessions   identity.SessionRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	signatures SignatureSource
	engine     *printing.TemplateEngine
	renderer   printing.PDFRenderer
	publicURL  string
	metrics    *telemetry.LedgerMetrics
	logger     *zap.Logger
	now        func() time.Time
}

// Deps groups the collaborators of Service
type Deps struct {
	Invoices   invoice.Repository
	Users      identity.UserRepository
	Sessions   identity.SessionRepository
	JWT        *auth.JWTService
	Blacklist  auth.TokenBlacklist
	Signatures SignatureSource
	Engine     *printing.TemplateEngine
	Renderer   printing.PDFRenderer
	PublicURL  string
	Metrics    *telemetry.LedgerMetrics
	Logger     *zap.Logger
}

// NewService creates a document Service
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		invoices:   d.Invoices,
		users:      d.Users,
		sessions:   d.Sessions,
		jwtService: d.JWT,
		blacklist:  d.Blacklist,
		signatures: d.Signatures,
		engine:     d.Engine,
		renderer:   d.Renderer,
		publicURL:  strings.TrimRight(d.PublicURL, "/"),
		metrics:    d.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Link checks that the caller owns the invoice and issues a document token
// bound to the caller's session and that invoice
func (s *Service) Link(ctx context.Context, userID, sessionID, invoiceID uuid.UUID) (*LinkResponse, error) {
	if _, err := s.invoices.FindByIDForUser(ctx, userID, invoiceID); err != nil {
		return nil, err
	}

	issued, err := s.jwtService.GenerateDocumentToken(userID, sessionID, invoiceID)
	if err != nil {
		s.logger.Error("Failed to sign document token", zap.Error(err))
		return nil, err
	}

	return &LinkResponse{
		URL:       fmt.Sprintf("%s/api/v1/invoices/%s/pdf?token=%s", s.publicURL, invoiceID, url.QueryEscape(issued.Token)),
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

// Authorize validates a document token. The token must be of the document
// type, and the session that requested it must still be alive.
func (s *Service) Authorize(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrTokenRequired
	}

	claims, err := s.jwtService.ValidateDocumentToken(token)
	if err != nil {
		s.logger.Debug("Document token rejected", zap.Error(err))
		return nil, ErrInvalidToken
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, ErrInvalidToken
	}
	sessionID, err := claims.GetSessionUUID()
	if err != nil {
		return nil, ErrInvalidToken
	}
	invoiceID, err := claims.GetInvoiceUUID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if session.UserID != userID || session.IsExpired(s.now()) {
		return nil, ErrInvalidToken
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsSessionRevoked(ctx, sessionID.String())
		if err != nil {
			s.logger.Warn("Blacklist lookup failed", zap.Error(err))
		} else if revoked {
			return nil, ErrInvalidToken
		}
	}

	return &Principal{UserID: userID, SessionID: sessionID, InvoiceID: invoiceID}, nil
}

// Render prints the invoice for the principal. A token minted for another
// invoice, another owner's invoice and a missing invoice all read as not found.
func (s *Service) Render(ctx context.Context, p *Principal, invoiceID uuid.UUID) (*File, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "render",
		telemetry.AttrUserID.String(p.UserID.String()),
		telemetry.AttrInvoiceID.String(invoiceID.String()),
	)
	defer span.End()

	if p.InvoiceID != invoiceID {
		return nil, ErrNotFound
	}

	inv, err := s.invoices.FindByIDForUser(ctx, p.UserID, invoiceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrNotFound
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	seller, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	view := s.buildView(ctx, seller, inv)
	span.SetAttributes(telemetry.AttrInvoiceNumber.String(view.DisplayNumber()))

	started := s.now()
	html, err := s.engine.RenderInvoice(ctx, view)
	if err != nil {
		s.metrics.RecordDocument(ctx, "template_error", 0)
		telemetry.RecordError(span, err)
		s.logger.Error("Invoice template failed", zap.String("invoice_id", invoiceID.String()), zap.Error(err))
		return nil, err
	}

	result, err := s.renderer.Render(ctx, &printing.RenderRequest{
		HTML:  html,
		Title: view.Title(),
	})
	if err != nil {
		s.metrics.RecordDocument(ctx, "render_error", 0)
		telemetry.RecordError(span, err)
		s.logger.Error("PDF rendering failed", zap.String("invoice_id", invoiceID.String()), zap.Error(err))
		return nil, err
	}
	s.metrics.RecordDocument(ctx, "success", s.now().Sub(started))

	s.logger.Info("Invoice document rendered",
		zap.String("invoice_id", invoiceID.String()),
		zap.Int("pages", result.PageCount),
		zap.Int("bytes", len(result.PDFData)),
	)

	return &File{
		Name:        view.FileName(),
		ContentType: ContentTypePDF,
		Data:        result.PDFData,
		Pages:       result.PageCount,
	}, nil
}

func (s *Service) buildView(ctx context.Context, seller *identity.User, inv *invoice.Invoice) *printing.InvoiceView {
	signature := ""
	if s.signatures != nil {
		var err error
		if signature, err = s.signatures.SignatureDataURL(ctx, seller); err != nil {
			s.logger.Warn("Printing without signature", zap.String("user_id", seller.ID.String()), zap.Error(err))
			signature = ""
		}
	}

	view := &printing.InvoiceView{
		Series:      inv.Series,
		Number:      inv.Number,
		InvoiceDate: inv.InvoiceDate,
		DueDate:     inv.DueDate,
		Seller: printing.SellerInfo{
			Name:         seller.Name,
			CompanyCode:  seller.CompanyCode,
			VATCode:      seller.VATCode,
			Address:      seller.Address,
			Phone:        seller.Phone,
			Email:        seller.Email,
			Website:      seller.Website,
			BankName:     seller.BankName,
			BankAccount:  seller.BankAccount,
			SignatureURL: signature,
		},
		Items: make([]printing.LineView, len(inv.Items)),
		Total: inv.Total,
		Notes: inv.Notes,
	}
	if c := inv.Client; c != nil {
		view.Buyer = printing.BuyerInfo{
			Name:        c.Name,
			CompanyCode: c.CompanyCode,
			VATCode:     c.VATCode,
			Address:     c.Address,
			Phone:       c.Phone,
			Email:       c.Email,
		}
	}
	for i, item := range inv.Items {
		view.Items[i] = printing.LineView{
			Index:       i + 1,
			Description: item.Description,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Total:       item.Total,
		}
	}
	return view
}
