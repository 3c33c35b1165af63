package identity

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SessionLifetime is how long a login session stays valid
	SessionLifetime = 7 * 24 * time.Hour
	// MaxSessionsPerUser caps concurrent sessions; login evicts the oldest beyond it
	MaxSessionsPerUser = 5
	// DefaultSessionName labels sessions created without a device name
	DefaultSessionName = "auth_token"
)

// Session is a persisted bearer-token grant. Its ID is the token's jti.
type Session struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	LastUsedAt *time.Time
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// NewSession opens a session for userID starting at now
func NewSession(userID uuid.UUID, name string, now time.Time) *Session {
	if name == "" {
		name = DefaultSessionName
	}
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		ExpiresAt: now.Add(SessionLifetime),
		CreatedAt: now,
	}
}

// IsExpired reports whether the session is no longer valid at now
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// ActivityAt is the time used to order sessions by recency
func (s *Session) ActivityAt() time.Time {
	if s.LastUsedAt != nil {
		return *s.LastUsedAt
	}
	return s.CreatedAt
}
