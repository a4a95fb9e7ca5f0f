package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the inboxbrief package.
const TracerName = "github.com/inboxbrief/inboxbrief"

// Span attribute keys for operations.
const (
	// SpanAttrRunID is the run identifier attribute.
	SpanAttrRunID = "run.id"

	// SpanAttrShape is the run shape attribute.
	SpanAttrShape = "run.shape"

	// SpanAttrOperation is the collaborator operation type attribute.
	SpanAttrOperation = "run.operation"
)

// StartRunSpan starts the span covering one full run, from RUN_STARTED to
// the terminal event.
func StartRunSpan(ctx context.Context, shape, runID string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "run."+shape,
		trace.WithAttributes(
			attribute.String(SpanAttrShape, shape),
			attribute.String(SpanAttrRunID, runID),
		),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartCollaboratorSpan starts a span for an outbound collaborator call
// (Gmail API or model call).
func StartCollaboratorSpan(ctx context.Context, collaborator, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrOperation, operation))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, collaborator+"."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
