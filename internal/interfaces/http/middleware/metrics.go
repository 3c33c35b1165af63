// Package middleware provides HTTP middleware for the invoicing API.
package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetricsConfig enables the request metrics
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
}

// Byte buckets. PDF downloads fill the top of the response range.
var (
	requestSizeBuckets  = []float64{100, 500, 1e3, 5e3, 1e4, 5e4, 1e5, 5e5, 1e6}
	responseSizeBuckets = []float64{100, 500, 1e3, 5e3, 1e4, 5e4, 1e5, 5e5, 1e6, 5e6}
)

type httpMetrics struct {
	requests  *telemetry.Counter
	latency   *telemetry.Histogram
	reqBytes  *telemetry.Histogram
	respBytes *telemetry.Histogram
	inFlight  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	var m httpMetrics
	var errs [5]error

	m.requests, errs[0] = telemetry.NewCounter(meter,
		"http_server_request_total", "HTTP requests by method, route and status", "{request}")
	m.latency, errs[1] = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name: "http_server_request_duration_ms", Description: "HTTP request latency",
		Unit: "ms", Buckets: telemetry.HTTPDurationBuckets,
	})
	m.reqBytes, errs[2] = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name: "http_server_request_size_bytes", Description: "HTTP request body size",
		Unit: "By", Buckets: requestSizeBuckets,
	})
	m.respBytes, errs[3] = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name: "http_server_response_size_bytes", Description: "HTTP response body size",
		Unit: "By", Buckets: responseSizeBuckets,
	})
	m.inFlight, errs[4] = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests being served"), metric.WithUnit("{request}"))

	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return &m, nil
}

// HTTPMetrics records request count, latency, body sizes and in-flight
// requests. It is a no-op unless metrics export is enabled.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"), true)
}

// HTTPMetricsWithMeter is HTTPMetrics on an explicit meter
func HTTPMetricsWithMeter(meter metric.Meter, enabled bool) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		reqSize := getRequestSize(c)

		m.inFlight.Add(ctx, 1)
		c.Next()
		m.inFlight.Add(ctx, -1)

		// Latency and sizes carry method and route only; the status code
		// is kept to the request counter
		attrs := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(getRoutePattern(c)),
		}
		m.requests.Inc(ctx, append(attrs, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))...)
		m.latency.RecordDuration(ctx, time.Since(start), attrs...)
		if reqSize > 0 {
			m.reqBytes.Record(ctx, float64(reqSize), attrs...)
		}
		if n := c.Writer.Size(); n > 0 {
			m.respBytes.Record(ctx, float64(n), attrs...)
		}
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}

// getRoutePattern keeps label cardinality bounded by using the matched
// pattern rather than the raw path
func getRoutePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

func getRequestSize(c *gin.Context) int64 {
	return max(c.Request.ContentLength, 0)
}
