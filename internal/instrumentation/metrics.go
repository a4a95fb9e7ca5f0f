package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrShape     = "shape"
	attrOperation = "operation"
	attrAccount   = "account"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Run lifecycle metrics
	runsTotal          metric.Int64Counter
	runDuration        metric.Float64Histogram
	runItemsProcessed  metric.Int64Counter
	runItemsFailed     metric.Int64Counter
	inflightFetches    metric.Int64UpDownCounter

	// Gmail API metrics
	gmailOperationsTotal   metric.Int64Counter
	gmailOperationDuration metric.Float64Histogram

	// Model call metrics
	llmCallsTotal   metric.Int64Counter
	llmCallDuration metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	// Run lifecycle metrics
	m.runsTotal, err = meter.Int64Counter(
		"runs_total",
		metric.WithDescription("Total number of runs, by shape and terminal status"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runs_total counter: %w", err)
	}

	m.runDuration, err = meter.Float64Histogram(
		"run_duration_seconds",
		metric.WithDescription("Run duration from RUN_STARTED to the terminal event"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run_duration_seconds histogram: %w", err)
	}

	m.runItemsProcessed, err = meter.Int64Counter(
		"run_items_processed_total",
		metric.WithDescription("Total number of messages successfully analyzed"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run_items_processed_total counter: %w", err)
	}

	m.runItemsFailed, err = meter.Int64Counter(
		"run_items_failed_total",
		metric.WithDescription("Total number of messages whose analysis failed"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run_items_failed_total counter: %w", err)
	}

	m.inflightFetches, err = meter.Int64UpDownCounter(
		"inflight_detail_fetches",
		metric.WithDescription("Number of Gmail detail fetches currently in flight"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create inflight_detail_fetches gauge: %w", err)
	}

	// Gmail API Metrics
	m.gmailOperationsTotal, err = meter.Int64Counter(
		"gmail_operations_total",
		metric.WithDescription("Total number of Gmail API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_operations_total counter: %w", err)
	}

	m.gmailOperationDuration, err = meter.Float64Histogram(
		"gmail_operation_duration_seconds",
		metric.WithDescription("Gmail API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_operation_duration_seconds histogram: %w", err)
	}

	// Model call metrics
	m.llmCallsTotal, err = meter.Int64Counter(
		"llm_calls_total",
		metric.WithDescription("Total number of model calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_calls_total counter: %w", err)
	}

	m.llmCallDuration, err = meter.Float64Histogram(
		"llm_call_duration_seconds",
		metric.WithDescription("Model call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_call_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordRun records one completed run with its terminal status and counters.
//
// Parameters:
//   - shape: run shape name ("agent", "narrative", "draft_reply")
//   - status: "success", "error", or "aborted"
//   - duration: elapsed time from RUN_STARTED to the terminal event
//   - processed, failed: pipeline item counters
func (m *Metrics) RecordRun(ctx context.Context, shape, status string, duration time.Duration, processed, failed int) {
	if m == nil || m.runsTotal == nil || m.runDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrShape, shape),
		attribute.String(attrStatus, status),
	}

	m.runsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(attrShape, shape)))

	shapeAttr := metric.WithAttributes(attribute.String(attrShape, shape))
	if processed > 0 {
		m.runItemsProcessed.Add(ctx, int64(processed), shapeAttr)
	}
	if failed > 0 {
		m.runItemsFailed.Add(ctx, int64(failed), shapeAttr)
	}
}

// RecordGmailOperation records a Gmail API operation with operation type,
// status, and duration.
func (m *Metrics) RecordGmailOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.gmailOperationsTotal == nil || m.gmailOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.gmailOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.gmailOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordLLMCall records a model call with operation type, status, and duration.
func (m *Metrics) RecordLLMCall(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.llmCallsTotal == nil || m.llmCallDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.llmCallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.llmCallDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// AddInflightFetches adjusts the in-flight detail fetch gauge by delta.
func (m *Metrics) AddInflightFetches(ctx context.Context, delta int64) {
	if m == nil || m.inflightFetches == nil {
		return // Instrumentation not initialized
	}

	m.inflightFetches.Add(ctx, delta)
}

// RecordRunWithAccount records a run including the account label when
// detailed labels are enabled. Account is a high-cardinality label and is
// dropped unless explicitly opted in.
func (m *Metrics) RecordRunWithAccount(ctx context.Context, shape, status, account string, duration time.Duration, processed, failed int) {
	if m == nil || m.runsTotal == nil || m.runDuration == nil {
		return // Instrumentation not initialized
	}

	if !m.detailedLabels || account == "" {
		m.RecordRun(ctx, shape, status, duration, processed, failed)
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrShape, shape),
		attribute.String(attrStatus, status),
		attribute.String(attrAccount, account),
	}

	m.runsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(attrShape, shape)))

	shapeAttr := metric.WithAttributes(attribute.String(attrShape, shape))
	if processed > 0 {
		m.runItemsProcessed.Add(ctx, int64(processed), shapeAttr)
	}
	if failed > 0 {
		m.runItemsFailed.Add(ctx, int64(failed), shapeAttr)
	}
}
