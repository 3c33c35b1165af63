package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist lets the auth middleware reject tokens of ended sessions
// without a database round trip. Session rows stay authoritative.
type TokenBlacklist interface {
	// RevokeSession rejects tokens of sessionID for ttl
	RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)

	// RevokeUser rejects every token of userID issued before the current
	// second. Tokens issued within that second survive, so a replacement
	// session can be opened at once.
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

const revokedKeyPrefix = "invoicer:revoked:"

// RedisTokenBlacklist shares revocations between instances. Session keys
// are flags; user keys hold the unix second of the revocation.
type RedisTokenBlacklist struct {
	rdb *redis.Client
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// NewRedisTokenBlacklist uses client, which the caller keeps owning
func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{rdb: client}
}

func sessionKey(id string) string { return revokedKeyPrefix + "jti:" + id }
func userKey(id string) string    { return revokedKeyPrefix + "user:" + id }

func (b *RedisTokenBlacklist) RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.rdb.Set(ctx, sessionKey(sessionID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke session %s: %w", sessionID, err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := b.rdb.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("check session %s: %w", sessionID, err)
	}
	return n == 1, nil
}

func (b *RedisTokenBlacklist) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	if err := b.rdb.Set(ctx, userKey(userID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke tokens of user %s: %w", userID, err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	raw, err := b.rdb.Get(ctx, userKey(userID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check tokens of user %s: %w", userID, err)
	}
	revokedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("corrupt revocation of user %s: %w", userID, err)
	}
	return issuedAt.Unix() < revokedAt, nil
}

// InMemoryTokenBlacklist is the single-instance fallback used without Redis
type InMemoryTokenBlacklist struct {
	mu       sync.Mutex
	sessions map[string]time.Time // expiry
	users    map[string]int64     // revocation second
	now      func() time.Time
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)

func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		sessions: make(map[string]time.Time),
		users:    make(map[string]int64),
		now:      time.Now,
	}
}

func (b *InMemoryTokenBlacklist) RevokeSession(_ context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	b.sessions[sessionID] = b.now().Add(ttl)
	b.mu.Unlock()
	return nil
}

// IsSessionRevoked forgets entries past their expiry
func (b *InMemoryTokenBlacklist) IsSessionRevoked(_ context.Context, sessionID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiry, ok := b.sessions[sessionID]
	if ok && !b.now().Before(expiry) {
		delete(b.sessions, sessionID)
		ok = false
	}
	return ok, nil
}

// RevokeUser ignores ttl; user entries are tiny and live for the process
func (b *InMemoryTokenBlacklist) RevokeUser(_ context.Context, userID string, _ time.Duration) error {
	b.mu.Lock()
	b.users[userID] = b.now().Unix()
	b.mu.Unlock()
	return nil
}

func (b *InMemoryTokenBlacklist) IsUserRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	revokedAt, ok := b.users[userID]
	b.mu.Unlock()
	return ok && issuedAt.Unix() < revokedAt, nil
}
