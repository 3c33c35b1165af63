package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSecureWithConfig(t *testing.T) {
	get := func(mw gin.HandlerFunc) http.Header {
		return serveWith(mw, httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)).Header()
	}

	t.Run("defaults", func(t *testing.T) {
		h := get(Secure())

		assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
		assert.Equal(t, "1; mode=block", h.Get("X-XSS-Protection"))
		assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"))
		assert.Contains(t, h.Get("Content-Security-Policy"), "frame-ancestors 'none'")
		assert.Contains(t, h.Get("Permissions-Policy"), "camera=()")
		assert.Empty(t, h.Get("Strict-Transport-Security"))
	})

	t.Run("hsts variants", func(t *testing.T) {
		cfg := DefaultSecurityConfig()
		cfg.HSTSMaxAge = 365 * 24 * time.Hour
		cfg.HSTSPreload = true
		assert.Equal(t, "max-age=31536000; includeSubDomains; preload", get(SecureWithConfig(cfg)).Get("Strict-Transport-Security"))

		cfg = SecurityConfig{HSTSMaxAge: 10 * time.Minute}
		assert.Equal(t, "max-age=600", get(SecureWithConfig(cfg)).Get("Strict-Transport-Security"))
	})

	t.Run("optional headers off", func(t *testing.T) {
		h := get(SecureWithConfig(SecurityConfig{}))

		assert.Empty(t, h.Get("Content-Security-Policy"))
		assert.Empty(t, h.Get("Permissions-Policy"))
		assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	})

	t.Run("custom directives", func(t *testing.T) {
		cfg := SecurityConfig{
			ContentSecurityPolicy: "default-src 'none'",
			PermissionsPolicy:     "geolocation=()",
		}
		h := get(SecureWithConfig(cfg))

		assert.Equal(t, "default-src 'none'", h.Get("Content-Security-Policy"))
		assert.Equal(t, "geolocation=()", h.Get("Permissions-Policy"))
	})
}
