package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	JWTClaimsKey    = "jwt_claims"
	JWTUserIDKey    = "jwt_user_id"
	JWTSessionIDKey = "jwt_session_id"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
)

// JWTMiddlewareConfig wires the checks a bearer token goes through
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is optional. Lookup failures are logged and skipped.
	TokenBlacklist auth.TokenBlacklist
	// Sessions, when set, makes the session row authoritative: a deleted or
	// expired session rejects its token and each request touches last_used_at
	Sessions identity.SessionRepository
	Logger   *zap.Logger
	Now      func() time.Time
}

// authFailure is the 401 body sent for one class of token errors
type authFailure struct {
	code    string
	message string
}

var authFailures = []struct {
	err error
	authFailure
}{
	{auth.ErrExpiredToken, authFailure{dto.ErrCodeTokenExpired, "Token has expired"}},
	{auth.ErrInvalidToken, authFailure{dto.ErrCodeTokenInvalid, "Invalid token"}},
	{auth.ErrInvalidClaims, authFailure{dto.ErrCodeTokenInvalid, "Invalid token"}},
	{auth.ErrInvalidTokenType, authFailure{dto.ErrCodeTokenInvalid, "Invalid token type"}},
	{auth.ErrTokenNotYetValid, authFailure{dto.ErrCodeTokenInvalid, "Token is not yet valid"}},
	{auth.ErrTokenBlacklisted, authFailure{dto.ErrCodeTokenRevoked, "Token has been revoked"}},
}

func failureFor(err error) authFailure {
	for _, f := range authFailures {
		if errors.Is(err, f.err) {
			return f.authFailure
		}
	}
	return authFailure{dto.ErrCodeUnauthorized, "Unauthenticated."}
}

// JWTAuthMiddleware checks the token signature and claims only
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{JWTService: jwtService})
}

func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		claims, err := cfg.authenticate(ctx, c.GetHeader(AuthHeaderKey))
		if err != nil {
			var storeErr *sessionStoreError
			if errors.As(err, &storeErr) {
				cfg.Logger.Error("Failed to load session", zap.Error(storeErr.err))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "An internal error occurred", getRequestID(c)))
				return
			}
			cfg.Logger.Warn("JWT authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path))
			f := failureFor(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(f.code, f.message, getRequestID(c)))
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTSessionIDKey, claims.SessionID)
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), claims.UserID, claims.SessionID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// sessionStoreError marks a session lookup that failed for reasons other
// than the session being gone
type sessionStoreError struct{ err error }

func (e *sessionStoreError) Error() string { return "session lookup: " + e.err.Error() }

func (cfg JWTMiddlewareConfig) authenticate(ctx context.Context, header string) (*auth.Claims, error) {
	raw, ok := strings.CutPrefix(header, BearerPrefix)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return nil, auth.ErrInvalidToken
	}

	claims, err := cfg.JWTService.ValidateAccessToken(raw)
	if err != nil {
		return nil, err
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, auth.ErrInvalidClaims
	}
	sessionID, err := claims.GetSessionUUID()
	if err != nil {
		return nil, auth.ErrInvalidClaims
	}

	if bl := cfg.TokenBlacklist; bl != nil {
		if revoked, err := bl.IsSessionRevoked(ctx, claims.SessionID); err != nil {
			cfg.Logger.Error("Failed to check token blacklist", zap.String("session_id", claims.SessionID), zap.Error(err))
		} else if revoked {
			return nil, auth.ErrTokenBlacklisted
		}
		if revoked, err := bl.IsUserRevoked(ctx, claims.UserID, claims.GetIssuedAtTime()); err != nil {
			cfg.Logger.Error("Failed to check user revocation", zap.String("user_id", claims.UserID), zap.Error(err))
		} else if revoked {
			return nil, auth.ErrTokenBlacklisted
		}
	}

	if cfg.Sessions == nil {
		return claims, nil
	}
	session, err := cfg.Sessions.FindByID(ctx, sessionID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return nil, auth.ErrTokenBlacklisted
	case err != nil:
		return nil, &sessionStoreError{err}
	}
	now := cfg.Now()
	if session.UserID != userID || session.IsExpired(now) {
		return nil, auth.ErrTokenBlacklisted
	}
	if err := cfg.Sessions.Touch(ctx, sessionID, now); err != nil {
		cfg.Logger.Warn("Failed to touch session", zap.String("session_id", claims.SessionID), zap.Error(err))
	}
	return claims, nil
}

// GetJWTClaims returns nil outside authenticated routes
func GetJWTClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(JWTClaimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

func GetJWTUserID(c *gin.Context) string    { return c.GetString(JWTUserIDKey) }
func GetJWTSessionID(c *gin.Context) string { return c.GetString(JWTSessionIDKey) }
