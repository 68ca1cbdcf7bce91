package observability

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/siproka/siproka-backend/internal/platform/logger"
)

// Metrics bundles the service's OTel instruments. All methods are safe on a
// nil receiver so call sites never need to guard.
type Metrics struct {
	apiRequests  metric.Int64Counter
	apiLatency   metric.Float64Histogram
	aggOps       metric.Int64Counter
	aggLatency   metric.Float64Histogram
	aggConflicts metric.Int64Counter
	aggRetries   metric.Int64Counter
}

func NewMetrics(log *logger.Logger) *Metrics {
	meter := otel.GetMeterProvider().Meter("siproka-backend")

	m := &Metrics{}
	var err error
	if m.apiRequests, err = meter.Int64Counter("http_requests_total"); err != nil && log != nil {
		log.Warn("metrics init failed", "instrument", "http_requests_total", "error", err)
	}
	if m.apiLatency, err = meter.Float64Histogram("http_request_duration_ms"); err != nil && log != nil {
		log.Warn("metrics init failed", "instrument", "http_request_duration_ms", "error", err)
	}
	if m.aggOps, err = meter.Int64Counter("aggregate_operations_total"); err != nil && log != nil {
		log.Warn("metrics init failed", "instrument", "aggregate_operations_total", "error", err)
	}
	if m.aggLatency, err = meter.Float64Histogram("aggregate_operation_duration_ms"); err != nil && log != nil {
		log.Warn("metrics init failed", "instrument", "aggregate_operation_duration_ms", "error", err)
	}
	if m.aggConflicts, err = meter.Int64Counter("aggregate_conflicts_total"); err != nil && log != nil {
		log.Warn("metrics init failed", "instrument", "aggregate_conflicts_total", "error", err)
	}
	if m.aggRetries, err = meter.Int64Counter("aggregate_retries_total"); err != nil && log != nil {
		log.Warn("metrics init failed", "instrument", "aggregate_retries_total", "error", err)
	}
	return m
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", strings.ToUpper(method)),
		attribute.String("route", route),
		attribute.String("status", status),
	)
	if m.apiRequests != nil {
		m.apiRequests.Add(context.Background(), 1, attrs)
	}
	if m.apiLatency != nil {
		m.apiLatency.Record(context.Background(), float64(dur.Milliseconds()), attrs)
	}
}

func (m *Metrics) ObserveAggregateOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("op", name),
		attribute.String("status", status),
	)
	if m.aggOps != nil {
		m.aggOps.Add(context.Background(), 1, attrs)
	}
	if m.aggLatency != nil {
		m.aggLatency.Record(context.Background(), float64(dur.Milliseconds()), attrs)
	}
}

func (m *Metrics) IncAggregateConflict(name string) {
	if m == nil || m.aggConflicts == nil {
		return
	}
	m.aggConflicts.Add(context.Background(), 1, metric.WithAttributes(attribute.String("op", name)))
}

func (m *Metrics) IncAggregateRetry(name string) {
	if m == nil || m.aggRetries == nil {
		return
	}
	m.aggRetries.Add(context.Background(), 1, metric.WithAttributes(attribute.String("op", name)))
}
