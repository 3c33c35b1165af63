package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of application spans
const TracerName = "github.com/invoicer/backend"

// Span attributes set by the application services
const (
	AttrUserID        = attribute.Key("user_id")
	AttrClientID      = attribute.Key("client_id")
	AttrInvoiceID     = attribute.Key("invoice_id")
	AttrInvoiceNumber = attribute.Key("invoice_number")
	AttrInvoiceStatus = attribute.Key("invoice_status")
	AttrItemsCount    = attribute.Key("items_count")
	AttrPeriod        = attribute.Key("period")
)

// StartServiceSpan starts an internal span named service.operation on the
// global provider. The caller ends it.
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create",
//		telemetry.AttrUserID.String(ownerID.String()))
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, service+"."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError marks span failed with err. A nil err leaves it untouched.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceID is the hex trace id of the span in ctx, or "" outside a trace
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
