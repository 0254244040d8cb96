// Package observability declares the ports the order and inventory code logs,
// traces and counts through. Concrete zap, OpenTelemetry and Prometheus
// adapters live under infrastructure/observability.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Observability is handed to every use case, worker and the HTTP handler.
type Observability interface {
	Tracer() Tracer
	Logger() Logger
	Metrics() Metrics
}

// Metrics resolves instruments by key. Unknown keys yield no-op instruments.
type Metrics interface {
	Counter(name MetricKey) Counter
	Histogram(name MetricKey) Histogram
	Gauge(name MetricKey) Gauge
}

// Tracer opens spans such as UC.PlaceOrder or HTTP GET /orders/{id}.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
}

// Counter backs the *_total series: webhook deliveries, order transitions, requests.
type Counter interface {
	Add(delta float64, labels ...Label)
}

// Histogram backs the *_duration_seconds series.
type Histogram interface {
	Observe(value float64, labels ...Label)
}

// Gauge backs point-in-time values like per-product stock.
type Gauge interface {
	Set(value float64, labels ...Label)
}

// Label is a metric label. Values must come from a bounded set.
type Label struct{ Key, Value string }

func L(k, v string) Label { return Label{Key: k, Value: v} }

// Field is a structured log field, e.g. F("order_id", 42).
type Field struct {
	Key   string
	Value any
}

func F(k string, v any) Field { return Field{Key: k, Value: v} }

// Logger writes snake_case event messages (use_case_done, low_stock,
// order_audit) with structured fields.
type Logger interface {
	With(fields ...Field) Logger
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

type MetricKey string
