package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Decision is the outcome of a single rate limit check
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts requests per key within a fixed window
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// MemoryLimiter is a fixed window limiter kept in process memory.
// Counts are per instance, so use RedisLimiter behind a load balancer.
type MemoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	window  time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type client struct {
	tokens    int
	lastReset time.Time
}

// NewMemoryLimiter creates a limiter and starts its cleanup loop
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	rl := &MemoryLimiter{
		clients: make(map[string]*client),
		limit:   limit,
		window:  window,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.cleanup(window * 2)
	return rl
}

// Stop ends the cleanup loop
func (rl *MemoryLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *MemoryLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, c := range rl.clients {
				if now.Sub(c.lastReset) > rl.window*2 {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Allow takes one token for key
func (rl *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, exists := rl.clients[key]
	if !exists || now.Sub(c.lastReset) >= rl.window {
		c = &client{tokens: rl.limit, lastReset: now}
		rl.clients[key] = c
	}

	d := Decision{Limit: rl.limit}
	if c.tokens > 0 {
		c.tokens--
		d.Allowed = true
		d.Remaining = c.tokens
		return d, nil
	}
	d.RetryAfter = c.lastReset.Add(rl.window).Sub(now)
	return d, nil
}

// Remaining returns the number of requests left for key in the current window
func (rl *MemoryLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, exists := rl.clients[key]
	if !exists || rl.now().Sub(c.lastReset) >= rl.window {
		return rl.limit
	}
	return c.tokens
}

var _ Limiter = (*MemoryLimiter)(nil)

// RedisLimiter shares fixed window counters between instances through Redis.
// The first INCR of a window sets the key expiry.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter creates a Redis backed limiter. prefix separates the
// counters of different limiters sharing one Redis database.
func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: "invoicer:ratelimit:" + prefix + ":",
		limit:  limit,
		window: window,
	}
}

// Allow increments the counter for key
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := rl.prefix + key

	count, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if count == 1 {
		if err := rl.client.PExpire(ctx, redisKey, rl.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	d := Decision{Limit: rl.limit}
	if count <= int64(rl.limit) {
		d.Allowed = true
		d.Remaining = rl.limit - int(count)
		return d, nil
	}

	ttl, err := rl.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read rate limit window: %w", err)
	}
	if ttl < 0 {
		// Expiry lost between INCR and PEXPIRE; start a new window
		_ = rl.client.PExpire(ctx, redisKey, rl.window).Err()
		ttl = rl.window
	}
	d.RetryAfter = ttl
	return d, nil
}

var _ Limiter = (*RedisLimiter)(nil)

// ClientIPKey keys limits by the caller's address
func ClientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// RateLimit rejects requests over the limiter's budget with 429. Limiter
// failures let the request through so a Redis outage does not take the API down.
func RateLimit(limiter Limiter, keyFunc func(*gin.Context) string, logger *zap.Logger) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = ClientIPKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := keyFunc(c)

		d, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request",
				zap.String("key", key),
				zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			seconds := int((d.RetryAfter + time.Second - 1) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				c.GetString(RequestIDContextKey),
			))
			return
		}

		c.Next()
	}
}
