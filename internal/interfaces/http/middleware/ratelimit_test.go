package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*MemoryLimiter, *time.Time) {
	t.Helper()
	limiter := NewMemoryLimiter(limit, window)
	t.Cleanup(limiter.Stop)

	now := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("allows requests within limit", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 5, time.Minute)

		for i := 0; i < 5; i++ {
			d, err := limiter.Allow(ctx, "client1")
			require.NoError(t, err)
			assert.True(t, d.Allowed, "request %d should be allowed", i+1)
			assert.Equal(t, 4-i, d.Remaining)
		}
	})

	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter, now := newTestLimiter(t, 3, time.Minute)

		for i := 0; i < 3; i++ {
			d, _ := limiter.Allow(ctx, "client2")
			assert.True(t, d.Allowed)
		}

		*now = now.Add(15 * time.Second)
		d, err := limiter.Allow(ctx, "client2")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 45*time.Second, d.RetryAfter)
	})

	t.Run("separate limits per key", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 2, time.Minute)

		for _, want := range []bool{true, true, false} {
			d, _ := limiter.Allow(ctx, "clientA")
			assert.Equal(t, want, d.Allowed)
		}

		d, _ := limiter.Allow(ctx, "clientB")
		assert.True(t, d.Allowed)
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter, now := newTestLimiter(t, 1, time.Minute)

		d, _ := limiter.Allow(ctx, "client3")
		assert.True(t, d.Allowed)
		d, _ = limiter.Allow(ctx, "client3")
		assert.False(t, d.Allowed)

		*now = now.Add(time.Minute)
		d, _ = limiter.Allow(ctx, "client3")
		assert.True(t, d.Allowed)
	})

	t.Run("remaining", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 5, time.Minute)

		assert.Equal(t, 5, limiter.Remaining("newclient"))
		_, _ = limiter.Allow(ctx, "newclient")
		_, _ = limiter.Allow(ctx, "newclient")
		assert.Equal(t, 3, limiter.Remaining("newclient"))
	})

	t.Run("concurrent access", func(t *testing.T) {
		limiter := NewMemoryLimiter(100, time.Minute)
		defer limiter.Stop()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d, _ := limiter.Allow(ctx, "shared")
				if d.Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 100, allowed)
	})
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{}, errors.New("redis: connection refused")
}

func TestRateLimitMiddleware(t *testing.T) {
	newRouter := func(limiter Limiter, keyFunc func(*gin.Context) string) *gin.Engine {
		router := gin.New()
		router.Use(RateLimit(limiter, keyFunc, nil))
		router.POST("/login", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})
		return router
	}
	send := func(router *gin.Engine, addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("sets rate limit headers", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 5, time.Minute)
		router := newRouter(limiter, nil)

		w := send(router, "192.168.1.100:12345")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("returns 429 envelope with Retry-After", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 1, time.Minute)
		router := newRouter(limiter, nil)

		assert.Equal(t, http.StatusOK, send(router, "192.168.1.100:12345").Code)
		w := send(router, "192.168.1.100:12345")

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), `"code":"RATE_LIMITED"`)
		assert.Contains(t, w.Body.String(), `"success":false`)
	})

	t.Run("separate limits per IP address", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 1, time.Minute)
		router := newRouter(limiter, nil)

		assert.Equal(t, http.StatusOK, send(router, "10.0.0.1:1000").Code)
		assert.Equal(t, http.StatusTooManyRequests, send(router, "10.0.0.1:1000").Code)
		assert.Equal(t, http.StatusOK, send(router, "10.0.0.2:1000").Code)
	})

	t.Run("custom key function", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 1, time.Minute)
		router := newRouter(limiter, func(*gin.Context) string { return "everyone" })

		assert.Equal(t, http.StatusOK, send(router, "10.0.0.1:1000").Code)
		assert.Equal(t, http.StatusTooManyRequests, send(router, "10.0.0.2:1000").Code)
	})

	t.Run("fails open when the limiter errors", func(t *testing.T) {
		router := newRouter(failingLimiter{}, nil)

		w := send(router, "10.0.0.1:1000")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	})
}
