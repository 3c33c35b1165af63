package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateNumbering(ctx context.Context, user *identity.User, next *int64) error {
	args := m.Called(ctx, user, next)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockSessionRepository is a mock implementation of identity.SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *identity.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Session), args.Error(1)
}

func (m *MockSessionRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]identity.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Session), args.Error(1)
}

func (m *MockSessionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockSessionRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context, userID uuid.UUID, now time.Time) error {
	args := m.Called(ctx, userID, now)
	return args.Error(0)
}

func (m *MockSessionRepository) TrimOldest(ctx context.Context, userID uuid.UUID, keep int) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID, keep)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type authFixture struct {
	service   *AuthService
	users     *MockUserRepository
	sessions  *MockSessionRepository
	jwt       *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist
}

func newAuthFixture() *authFixture {
	users := new(MockUserRepository)
	sessions := new(MockSessionRepository)
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-that-is-at-least-32-chars",
		Issuer: "invoicer-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	return &authFixture{
		service:   NewAuthService(users, sessions, jwtService, blacklist, nil, zap.NewNop()),
		users:     users,
		sessions:  sessions,
		jwt:       jwtService,
		blacklist: blacklist,
	}
}

func newTestUser(t *testing.T) *identity.User {
	t.Helper()
	user, err := identity.NewUser("Jonas Jonaitis", "jonas@example.com", "secret123")
	require.NoError(t, err)
	return user
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user and opens a session", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("ExistsByEmail", ctx, "jonas@example.com").Return(false, nil)
		f.users.On("Create", ctx, mock.AnythingOfType("*identity.User")).Return(nil)
		f.sessions.On("Create", ctx, mock.AnythingOfType("*identity.Session")).Return(nil)

		result, err := f.service.Register(ctx, RegisterInput{
			Name:       "Jonas Jonaitis",
			Email:      "Jonas@Example.com",
			Password:   "secret123",
			DeviceName: "laptop",
		})

		require.NoError(t, err)
		assert.Equal(t, "jonas@example.com", result.User.Email)
		assert.Equal(t, int64(1), result.User.NextInvoiceNumber)

		claims, err := f.jwt.ValidateAccessToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, result.User.ID.String(), claims.UserID)
		assert.Equal(t, result.SessionID.String(), claims.SessionID)

		created := f.sessions.Calls[0].Arguments.Get(1).(*identity.Session)
		assert.Equal(t, "laptop", created.Name)
		f.users.AssertExpectations(t)
	})

	t.Run("rejects a taken email", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("ExistsByEmail", ctx, "jonas@example.com").Return(true, nil)

		_, err := f.service.Register(ctx, RegisterInput{
			Name:     "Jonas",
			Email:    "jonas@example.com",
			Password: "secret123",
		})

		assert.ErrorIs(t, err, ErrEmailTaken)
		f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects a short password before touching storage", func(t *testing.T) {
		f := newAuthFixture()

		_, err := f.service.Register(ctx, RegisterInput{
			Name:     "Jonas",
			Email:    "jonas@example.com",
			Password: "short",
		})

		require.Error(t, err)
		f.users.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t)

	t.Run("opens a session and evicts the oldest beyond the cap", func(t *testing.T) {
		f := newAuthFixture()
		evicted := uuid.New()
		f.users.On("FindByEmail", ctx, "jonas@example.com").Return(user, nil)
		f.sessions.On("DeleteExpired", ctx, user.ID, mock.AnythingOfType("time.Time")).Return(nil)
		f.sessions.On("TrimOldest", ctx, user.ID, identity.MaxSessionsPerUser-1).Return([]uuid.UUID{evicted}, nil)
		f.sessions.On("Create", ctx, mock.AnythingOfType("*identity.Session")).Return(nil)

		result, err := f.service.Login(ctx, LoginInput{Email: "jonas@example.com", Password: "secret123"})

		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, user.ID, result.User.ID)

		revoked, err := f.blacklist.IsSessionRevoked(ctx, evicted.String())
		require.NoError(t, err)
		assert.True(t, revoked)
		f.sessions.AssertExpectations(t)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByEmail", ctx, "nobody@example.com").Return(nil, shared.ErrNotFound)

		_, err := f.service.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret123"})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByEmail", ctx, "jonas@example.com").Return(user, nil)

		_, err := f.service.Login(ctx, LoginInput{Email: "jonas@example.com", Password: "wrong-password"})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	userID, sessionID := uuid.New(), uuid.New()
	f.sessions.On("Delete", ctx, userID, sessionID).Return(nil)

	err := f.service.Logout(ctx, userID, sessionID, time.Hour)

	require.NoError(t, err)
	revoked, err := f.blacklist.IsSessionRevoked(ctx, sessionID.String())
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthService_LogoutAll(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	userID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	f.sessions.On("DeleteAllForUser", ctx, userID).Return(ids, nil)

	require.NoError(t, f.service.LogoutAll(ctx, userID))

	for _, id := range ids {
		revoked, err := f.blacklist.IsSessionRevoked(ctx, id.String())
		require.NoError(t, err)
		assert.True(t, revoked)
	}
	invalidated, err := f.blacklist.IsUserRevoked(ctx, userID.String(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, invalidated)
}

func TestAuthService_Sessions(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	userID := uuid.New()
	now := time.Now()
	current := identity.NewSession(userID, "laptop", now)
	other := identity.NewSession(userID, "phone", now.Add(-time.Hour))
	f.sessions.On("FindByUser", ctx, userID).Return([]identity.Session{*current, *other}, nil)

	sessions, err := f.service.Sessions(ctx, userID, current.ID)

	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].IsCurrent)
	assert.False(t, sessions[1].IsCurrent)
	assert.Equal(t, "phone", sessions[1].Name)
}

func TestAuthService_DeleteSession(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	t.Run("revokes another session", func(t *testing.T) {
		f := newAuthFixture()
		current := identity.NewSession(userID, "laptop", now)
		other := identity.NewSession(userID, "phone", now)
		f.sessions.On("FindByID", ctx, other.ID).Return(other, nil)
		f.sessions.On("Delete", ctx, userID, other.ID).Return(nil)

		err := f.service.DeleteSession(ctx, userID, current.ID, other.ID)

		require.NoError(t, err)
		revoked, err := f.blacklist.IsSessionRevoked(ctx, other.ID.String())
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("refuses the current session", func(t *testing.T) {
		f := newAuthFixture()
		current := identity.NewSession(userID, "laptop", now)
		f.sessions.On("FindByID", ctx, current.ID).Return(current, nil)

		err := f.service.DeleteSession(ctx, userID, current.ID, current.ID)

		assert.ErrorIs(t, err, ErrCurrentSession)
		f.sessions.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("another user's session is not found", func(t *testing.T) {
		f := newAuthFixture()
		foreign := identity.NewSession(uuid.New(), "phone", now)
		f.sessions.On("FindByID", ctx, foreign.ID).Return(foreign, nil)

		err := f.service.DeleteSession(ctx, userID, uuid.New(), foreign.ID)

		assert.ErrorIs(t, err, ErrSessionNotFound)
		f.sessions.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing session", func(t *testing.T) {
		f := newAuthFixture()
		id := uuid.New()
		f.sessions.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		err := f.service.DeleteSession(ctx, userID, uuid.New(), id)

		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("ends all sessions and issues a fresh token", func(t *testing.T) {
		f := newAuthFixture()
		user := newTestUser(t)
		old := uuid.New()
		f.users.On("FindByID", ctx, user.ID).Return(user, nil)
		f.users.On("Update", ctx, user).Return(nil)
		f.sessions.On("DeleteAllForUser", ctx, user.ID).Return([]uuid.UUID{old}, nil)
		f.sessions.On("Create", ctx, mock.AnythingOfType("*identity.Session")).Return(nil)

		result, err := f.service.ChangePassword(ctx, ChangePasswordInput{
			UserID:          user.ID,
			CurrentPassword: "secret123",
			NewPassword:     "newsecret1",
		})

		require.NoError(t, err)
		assert.True(t, user.VerifyPassword("newsecret1"))
		assert.NotEqual(t, old, result.SessionID)

		claims, err := f.jwt.ValidateAccessToken(result.Token)
		require.NoError(t, err)
		invalidated, err := f.blacklist.IsUserRevoked(ctx, user.ID.String(), claims.GetIssuedAtTime())
		require.NoError(t, err)
		assert.False(t, invalidated)

		revoked, err := f.blacklist.IsSessionRevoked(ctx, old.String())
		require.NoError(t, err)
		assert.True(t, revoked)

		created := f.sessions.Calls[1].Arguments.Get(1).(*identity.Session)
		assert.Equal(t, identity.DefaultSessionName, created.Name)
	})

	t.Run("wrong current password", func(t *testing.T) {
		f := newAuthFixture()
		user := newTestUser(t)
		f.users.On("FindByID", ctx, user.ID).Return(user, nil)

		_, err := f.service.ChangePassword(ctx, ChangePasswordInput{
			UserID:          user.ID,
			CurrentPassword: "wrong-password",
			NewPassword:     "newsecret1",
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PASSWORD", domainErr.Code)
		f.sessions.AssertNotCalled(t, "DeleteAllForUser", mock.Anything, mock.Anything)
	})
}
