package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GinContextKey holds the request-scoped logger on the gin context
const GinContextKey = "logger"

// GinMiddleware writes one access log line per request and hands handlers a
// logger tagged with the request id, which RequestID must have set before.
func GinMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()

		ctx, log := WithRequestID(c.Request.Context(), base, c.GetString("request_id"))
		log = log.With(zap.String("method", c.Request.Method), zap.String("path", c.Request.URL.Path))
		c.Request = c.Request.WithContext(WithContext(ctx, log))
		c.Set(GinContextKey, log)

		c.Next()

		status := c.Writer.Status()
		if ce := log.Check(accessLevel(status), "HTTP Request"); ce != nil {
			ce.Write(accessFields(c, status, time.Since(started))...)
		}
	}
}

func accessLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

func accessFields(c *gin.Context, status int, latency time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.Duration("latency", latency),
		zap.String("client_ip", c.ClientIP()),
		zap.Int("body_size", c.Writer.Size()),
	}
	// document links carry their bearer token in the query
	if q := c.Request.URL.RawQuery; q != "" && !c.Request.URL.Query().Has("token") {
		fields = append(fields, zap.String("query", q))
	}
	if uid := c.GetString("jwt_user_id"); uid != "" {
		fields = append(fields, zap.String("user_id", uid))
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
	}
	return fields
}

// Recovery answers a panicking handler with the standard 500 envelope
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			requestID := c.GetString("request_id")
			base.Error("Panic recovered",
				zap.String("request_id", requestID),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("error", recovered),
				zap.Stack("stacktrace"))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":       "INTERNAL_ERROR",
					"message":    "An internal error occurred",
					"request_id": requestID,
				},
			})
		}()
		c.Next()
	}
}

// GetGinLogger returns the logger GinMiddleware stored, or a no-op logger
func GetGinLogger(c *gin.Context) *zap.Logger {
	if l, ok := c.Value(GinContextKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
