package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/infrastructure/config"
)

// TokenType tells access tokens from document tokens
type TokenType string

const (
	// TokenTypeAccess authenticates API requests. Its jti is the session id.
	TokenTypeAccess TokenType = "access"
	// TokenTypeDocument opens one invoice document and lives for minutes
	TokenTypeDocument TokenType = "document"
)

// DefaultDocumentTokenExpiration applies when the configuration leaves it unset
const DefaultDocumentTokenExpiration = 5 * time.Minute

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrMissingSessionID = errors.New("missing session id in claims")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

// Claims carries the session a token belongs to. Document tokens also name
// the invoice they open.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string    `json:"user_id"`
	SessionID string    `json:"sid,omitempty"`
	InvoiceID string    `json:"invoice_id,omitempty"`
	TokenType TokenType `json:"token_type"`
}

// IssuedToken is a signed token and its expiry
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// JWTService signs and verifies HS256 tokens
type JWTService struct {
	secret             []byte
	issuer             string
	documentExpiration time.Duration
	parser             *jwt.Parser
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	docExp := cfg.DocumentTokenExpiration
	if docExp == 0 {
		docExp = DefaultDocumentTokenExpiration
	}
	return &JWTService{
		secret:             []byte(cfg.Secret),
		issuer:             cfg.Issuer,
		documentExpiration: docExp,
		parser:             jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// DocumentTokenExpiration returns the lifetime of document tokens
func (s *JWTService) DocumentTokenExpiration() time.Duration {
	return s.documentExpiration
}

// GenerateAccessToken signs a bearer token for a session. The token expires
// together with the session it stands for.
func (s *JWTService) GenerateAccessToken(userID, sessionID uuid.UUID, expiresAt time.Time) (*IssuedToken, error) {
	claims := s.newClaims(TokenTypeAccess, userID, sessionID, sessionID.String(), expiresAt)
	return s.issue(claims)
}

// GenerateDocumentToken signs a short-lived token that opens a single invoice
// document on behalf of the session that requested it.
func (s *JWTService) GenerateDocumentToken(userID, sessionID, invoiceID uuid.UUID) (*IssuedToken, error) {
	claims := s.newClaims(TokenTypeDocument, userID, sessionID, uuid.NewString(), time.Now().Add(s.documentExpiration))
	claims.InvoiceID = invoiceID.String()
	return s.issue(claims)
}

func (s *JWTService) newClaims(kind TokenType, userID, sessionID uuid.UUID, jti string, expiresAt time.Time) *Claims {
	now := jwt.NewNumericDate(time.Now())
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: now,
			IssuedAt:  now,
		},
		UserID:    userID.String(),
		SessionID: sessionID.String(),
		TokenType: kind,
	}
}

func (s *JWTService) issue(claims *Claims) (*IssuedToken, error) {
	token, err := s.sign(claims)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *JWTService) sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.parse(tokenString, TokenTypeAccess)
}

// ValidateDocumentToken also requires the invoice claim
func (s *JWTService) ValidateDocumentToken(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString, TokenTypeDocument)
	if err != nil {
		return nil, err
	}
	if claims.InvoiceID == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

func (s *JWTService) parse(tokenString string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	case claims.TokenType != want:
		return nil, ErrInvalidTokenType
	case claims.UserID == "":
		return nil, ErrMissingUserID
	case claims.SessionID == "":
		return nil, ErrMissingSessionID
	}
	return claims, nil
}

func (c *Claims) GetUserUUID() (uuid.UUID, error)    { return uuid.Parse(c.UserID) }
func (c *Claims) GetSessionUUID() (uuid.UUID, error) { return uuid.Parse(c.SessionID) }
func (c *Claims) GetInvoiceUUID() (uuid.UUID, error) { return uuid.Parse(c.InvoiceID) }

// GetIssuedAtTime is zero for tokens without iat
func (c *Claims) GetIssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// GetRemainingTTL never goes below zero
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}
