package instrumentation

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func withTestTracerProvider(t *testing.T) *sdktrace.TracerProvider {
	t.Helper()
	tp := sdktrace.NewTracerProvider()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return tp
}

func TestGetTraceIDWithActiveSpan(t *testing.T) {
	tp := withTestTracerProvider(t)

	ctx, span := tp.Tracer(TracerName).Start(context.Background(), "test")
	defer span.End()

	traceID := GetTraceID(ctx)
	if traceID == "" {
		t.Fatal("expected a trace id for an active span")
	}
	if traceID != span.SpanContext().TraceID().String() {
		t.Errorf("trace id mismatch: got %s", traceID)
	}
}

func TestGetTraceIDWithoutSpan(t *testing.T) {
	if id := GetTraceID(context.Background()); id != "" {
		t.Errorf("expected empty trace id without a span, got %s", id)
	}
}

func TestStartRunSpanIsRecording(t *testing.T) {
	withTestTracerProvider(t)

	ctx, span := StartRunSpan(context.Background(), "agent", "run-1")
	defer span.End()

	if !span.IsRecording() {
		t.Error("run span should be recording")
	}
	if GetTraceID(ctx) == "" {
		t.Error("run span should yield a trace id")
	}
}

func TestStartCollaboratorSpanIsRecording(t *testing.T) {
	withTestTracerProvider(t)

	ctx, parent := StartRunSpan(context.Background(), "agent", "run-1")
	defer parent.End()

	cctx, span := StartCollaboratorSpan(ctx, "gmail", OperationList)
	defer span.End()

	if !span.IsRecording() {
		t.Error("collaborator span should be recording")
	}
	if GetTraceID(cctx) != GetTraceID(ctx) {
		t.Error("collaborator span should stay in the run's trace")
	}
}
