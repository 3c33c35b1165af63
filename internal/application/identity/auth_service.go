package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Auth errors
var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "The provided credentials are incorrect.")
	ErrEmailTaken         = shared.NewDomainError("ALREADY_EXISTS", "The email has already been taken.")
	ErrCurrentSession     = shared.NewDomainError("INVALID_SESSION", "Cannot delete current session. Use logout instead.")
	ErrSessionNotFound    = shared.NewDomainError("NOT_FOUND", "Session not found")
)

// AuthService handles registration, login and session management.
// Every access token stands for one session row; revoking the row revokes the token.
type AuthService struct {
	users      identity.UserRepository
	sessions   identity.SessionRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	metrics    *telemetry.LedgerMetrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service. metrics may be nil.
func NewAuthService(
	users identity.UserRepository,
	sessions identity.SessionRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	metrics *telemetry.LedgerMetrics,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwtService: jwtService,
		blacklist:  blacklist,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates a seller account and logs it in
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	user, err := identity.NewUser(in.Name, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return s.openSession(ctx, user, in.DeviceName)
}

// Login verifies credentials, prunes old sessions and opens a new one
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.metrics.RecordLogin(ctx, "unknown_user")
			s.logger.Warn("Login for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.VerifyPassword(in.Password) {
		s.metrics.RecordLogin(ctx, "bad_password")
		s.logger.Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	if err := s.sessions.DeleteExpired(ctx, user.ID, s.now()); err != nil {
		return nil, err
	}
	evicted, err := s.sessions.TrimOldest(ctx, user.ID, identity.MaxSessionsPerUser-1)
	if err != nil {
		return nil, err
	}
	s.revoke(ctx, evicted, identity.SessionLifetime)

	s.metrics.RecordLogin(ctx, "success")
	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return s.openSession(ctx, user, in.DeviceName)
}

// Logout ends the current session. ttl is the remaining lifetime of its token.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID uuid.UUID, ttl time.Duration) error {
	if err := s.sessions.Delete(ctx, userID, sessionID); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	s.revoke(ctx, []uuid.UUID{sessionID}, ttl)
	s.logger.Info("User logged out",
		zap.String("user_id", userID.String()),
		zap.String("session_id", sessionID.String()),
	)
	return nil
}

// LogoutAll ends every session of the user
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.endAllSessions(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("User logged out from all devices", zap.String("user_id", userID.String()))
	return nil
}

// Me returns the authenticated user
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// Sessions lists the user's sessions, most recently used first
func (s *AuthService) Sessions(ctx context.Context, userID, currentSessionID uuid.UUID) ([]SessionResponse, error) {
	sessions, err := s.sessions.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]SessionResponse, len(sessions))
	for i, sess := range sessions {
		out[i] = SessionResponse{
			ID:         sess.ID,
			Name:       sess.Name,
			LastUsedAt: sess.LastUsedAt,
			CreatedAt:  sess.CreatedAt,
			ExpiresAt:  sess.ExpiresAt,
			IsCurrent:  sess.ID == currentSessionID,
		}
	}
	return out, nil
}

// DeleteSession revokes another session of the user. The current session
// must be ended through Logout.
func (s *AuthService) DeleteSession(ctx context.Context, userID, currentSessionID, id uuid.UUID) error {
	if _, err := s.findOwnSession(ctx, userID, id); err != nil {
		return err
	}
	if id == currentSessionID {
		return ErrCurrentSession
	}
	if err := s.sessions.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	s.revoke(ctx, []uuid.UUID{id}, identity.SessionLifetime)
	return nil
}

// ChangePassword verifies the current password, sets the new one, ends every
// session and returns a fresh token
func (s *AuthService) ChangePassword(ctx context.Context, in ChangePasswordInput) (*AuthResult, error) {
	user, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := user.ChangePassword(in.CurrentPassword, in.NewPassword); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if err := s.endAllSessions(ctx, user.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Password changed", zap.String("user_id", user.ID.String()))
	return s.openSession(ctx, user, identity.DefaultSessionName)
}

func (s *AuthService) findOwnSession(ctx context.Context, userID, id uuid.UUID) (*identity.Session, error) {
	sess, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *AuthService) endAllSessions(ctx context.Context, userID uuid.UUID) error {
	ids, err := s.sessions.DeleteAllForUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.blacklist.RevokeUser(ctx, userID.String(), identity.SessionLifetime); err != nil {
		s.logger.Warn("Failed to invalidate user tokens", zap.String("user_id", userID.String()), zap.Error(err))
	}
	s.revoke(ctx, ids, identity.SessionLifetime)
	return nil
}

// revoke blacklists session tokens. The session rows are already deleted, so
// blacklist failures are only logged.
func (s *AuthService) revoke(ctx context.Context, sessionIDs []uuid.UUID, ttl time.Duration) {
	for _, id := range sessionIDs {
		if err := s.blacklist.RevokeSession(ctx, id.String(), ttl); err != nil {
			s.logger.Warn("Failed to blacklist session token", zap.String("session_id", id.String()), zap.Error(err))
		}
	}
}

func (s *AuthService) openSession(ctx context.Context, user *identity.User, name string) (*AuthResult, error) {
	session := identity.NewSession(user.ID, name, s.now())
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	token, err := s.jwtService.GenerateAccessToken(user.ID, session.ID, session.ExpiresAt)
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err))
		return nil, err
	}

	return &AuthResult{
		User:      ToUserResponse(user),
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		SessionID: session.ID,
	}, nil
}
