package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// Exporter is the OTLP/gRPC collector all three signals are pushed to
type Exporter struct {
	CollectorEndpoint string
	Insecure          bool
	ServiceName       string
	ServiceVersion    string
}

// resource describes this process on every exported signal
func (e Exporter) resource() (*resource.Resource, error) {
	version := e.ServiceVersion
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(e.ServiceName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}
	return res, nil
}

const shutdownTimeout = 10 * time.Second

// shutdown gives a provider a bounded window to flush
func shutdown(ctx context.Context, signal string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return fmt.Errorf("shutdown %s provider: %w", signal, err)
	}
	return nil
}
