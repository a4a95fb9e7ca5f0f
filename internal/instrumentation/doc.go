// Package instrumentation wires OpenTelemetry metrics and tracing for the
// service.
//
// The Provider owns the meter and tracer providers and their exporters.
// Metrics default to the Prometheus exporter, served on a dedicated port by
// the metrics server; OTLP and stdout exporters are available via
// environment configuration. Tracing is off by default.
//
// The Metrics recorder covers the run lifecycle (runs, durations, item
// counters), Gmail API operations, and model calls. Metric labels carry no
// message content and no user identifiers beyond the optional account label
// gated by METRICS_DETAILED_LABELS.
package instrumentation
