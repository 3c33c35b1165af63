package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// Update persists profile, password and signature fields. The invoice
	// counter is left alone so a concurrent invoice create cannot be undone.
	Update(ctx context.Context, user *User) error

	// UpdateNumbering persists the profile like Update and, when next is set,
	// the invoice counter. Under the user row lock the effective counter must
	// stay above every number already issued in the series, otherwise
	// ErrNextInvoiceNumberUsed is returned and nothing is written.
	UpdateNumbering(ctx context.Context, user *User, next *int64) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail checks if an email already exists
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// SessionRepository defines the interface for session persistence
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error

	// FindByID returns ErrNotFound when the session does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// FindByUser lists a user's sessions, most recently used first
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Session, error)

	// Touch records use of a session
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error

	// Delete removes one session of the user; ErrNotFound when it is not theirs
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// DeleteAllForUser removes every session of the user and returns the removed IDs
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// DeleteExpired removes the user's sessions that expired before now
	DeleteExpired(ctx context.Context, userID uuid.UUID, now time.Time) error

	// TrimOldest keeps at most keep sessions of the user, removing the oldest by creation time
	TrimOldest(ctx context.Context, userID uuid.UUID, keep int) ([]uuid.UUID, error)
}
