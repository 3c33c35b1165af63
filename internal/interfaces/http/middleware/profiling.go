package middleware

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig controls which requests get Pyroscope labels
type ProfilingConfig struct {
	Enabled          bool
	SkipPaths        []string
	SkipPathPrefixes []string
}

// DefaultProfilingConfig labels everything except health probes and swagger
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:          true,
		SkipPaths:        []string{"/health", "/api/v1/health"},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

// Profiling tags CPU samples with the route being served
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig tags CPU samples taken while a request is handled with
// its method, route pattern and resource (e.g. "invoices")
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	skip := func(p string) bool {
		if slices.Contains(cfg.SkipPaths, p) {
			return true
		}
		return slices.ContainsFunc(cfg.SkipPathPrefixes, func(prefix string) bool {
			return strings.HasPrefix(p, prefix)
		})
	}

	return func(c *gin.Context) {
		if skip(c.Request.URL.Path) {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// profilingLabels only uses low-cardinality values: the matched pattern,
// never the raw path
func profilingLabels(c *gin.Context) map[string]string {
	labels := map[string]string{telemetry.ProfilingLabelMethod: c.Request.Method}
	route := c.FullPath()
	if route == "" {
		return labels
	}
	labels[telemetry.ProfilingLabelRoute] = route
	if res := resourceOf(route); res != "" {
		labels[telemetry.ProfilingLabelController] = res
	}
	return labels
}

// resourceOf returns the first static segment after /api and the version,
// so "/api/v1/invoices/:id/pdf" yields "invoices"
func resourceOf(route string) string {
	for _, seg := range strings.Split(route, "/") {
		switch {
		case seg == "", seg == "api", isVersionSegment(seg):
		case strings.HasPrefix(seg, ":"), strings.HasPrefix(seg, "*"):
		default:
			return seg
		}
	}
	return ""
}

// isVersionSegment matches v1, v2, V10 and so on
func isVersionSegment(seg string) bool {
	if len(seg) < 2 || (seg[0] != 'v' && seg[0] != 'V') {
		return false
	}
	n, err := strconv.Atoi(seg[1:])
	return err == nil && n >= 0 && !strings.ContainsAny(seg[1:], "+-")
}
