// Package testutil provides helpers shared by the integration suites: unique
// fixtures, bounded contexts and a JSON client for the HTTP API.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// UniqueEmail returns an address that will not collide across test runs
func UniqueEmail(prefix string) string {
	return prefix + "+" + uuid.NewString()[:8] + "@invoicer.test"
}

// ContextWithTimeout returns a context bounded by timeout that is also
// cancelled when the test ends
func ContextWithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx, cancel
}
