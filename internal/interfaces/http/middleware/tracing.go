package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength caps request IDs taken from headers
const MaxRequestIDLength = 128

// RequestIDContextKey is where RequestID stores the id on the gin context
const RequestIDContextKey = "request_id"

// TracingConfig enables request spans
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// TracingWithConfig starts a span per request, named after the route
// pattern. Health probes are not traced.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}
	return otelgin.Middleware(cfg.ServiceName,
		otelgin.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/api/v1/health"
		}),
	)
}

// getRequestID prefers the id RequestID stored and falls back to a
// truncated header value
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDContextKey); id != "" {
		return id
	}
	id := c.GetHeader("X-Request-ID")
	return id[:min(len(id), MaxRequestIDLength)]
}

// SpanErrorMarker fails the request span on 4xx and 5xx responses. It must
// run after the tracing middleware.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		span := trace.SpanFromContext(c.Request.Context())
		if status < http.StatusBadRequest || !span.IsRecording() {
			return
		}
		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}

// TracingAttributeInjector tags the request span with the request, user and
// session ids known so far and echoes the trace id in X-Trace-ID. Mount it
// after tracing and again after authentication.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := telemetry.TraceID(c.Request.Context()); id != "" {
			c.Header("X-Trace-ID", id)
		}
		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			for key, value := range map[string]string{
				"request_id": getRequestID(c),
				"user_id":    GetJWTUserID(c),
				"session_id": GetJWTSessionID(c),
			} {
				if value != "" {
					span.SetAttributes(attribute.String(key, value))
				}
			}
		}
		c.Next()
	}
}
