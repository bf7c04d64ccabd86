package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope used for tracegraph metrics.
const MeterName = "tracegraph"

// MetricsRecorder records tracegraph metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordParse records a finished parse run.
	RecordParse(ctx context.Context, success bool, eventCount int, duration time.Duration)

	// RecordYield records one cooperative pause of the dispatch loop.
	RecordYield(ctx context.Context, pause time.Duration)

	// RecordFinalize records one handler's finalize step.
	RecordFinalize(ctx context.Context, handler string, duration time.Duration, err error)

	// RecordHandlerError records a handler failure during op.
	RecordHandlerError(ctx context.Context, handler, op string)

	// RecordSnapshot records a snapshot save operation.
	RecordSnapshot(ctx context.Context, handler string, sizeBytes int64)
}

type otelMetrics struct {
	parseRuns        metric.Int64Counter
	parseLatency     metric.Float64Histogram
	eventsDispatched metric.Int64Counter
	yields           metric.Int64Counter
	yieldPause       metric.Float64Histogram
	finalizeLatency  metric.Float64Histogram
	handlerErrors    metric.Int64Counter
	snapshotSize     metric.Int64Histogram
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	parseRuns, err := meter.Int64Counter("tracegraph.parse.runs",
		metric.WithDescription("Number of parse runs"),
	)
	if err != nil {
		return nil, err
	}

	parseLatency, err := meter.Float64Histogram("tracegraph.parse.latency_ms",
		metric.WithDescription("Parse run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	eventsDispatched, err := meter.Int64Counter("tracegraph.events.dispatched",
		metric.WithDescription("Number of trace events dispatched to handlers"),
	)
	if err != nil {
		return nil, err
	}

	yields, err := meter.Int64Counter("tracegraph.parse.yields",
		metric.WithDescription("Number of cooperative pauses in the dispatch loop"),
	)
	if err != nil {
		return nil, err
	}

	yieldPause, err := meter.Float64Histogram("tracegraph.parse.yield_ms",
		metric.WithDescription("Time spent paused per yield in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	finalizeLatency, err := meter.Float64Histogram("tracegraph.handler.finalize_ms",
		metric.WithDescription("Handler finalize latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	handlerErrors, err := meter.Int64Counter("tracegraph.handler.errors",
		metric.WithDescription("Number of handler failures"),
	)
	if err != nil {
		return nil, err
	}

	snapshotSize, err := meter.Int64Histogram("tracegraph.snapshot.size_bytes",
		metric.WithDescription("Snapshot size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		parseRuns:        parseRuns,
		parseLatency:     parseLatency,
		eventsDispatched: eventsDispatched,
		yields:           yields,
		yieldPause:       yieldPause,
		finalizeLatency:  finalizeLatency,
		handlerErrors:    handlerErrors,
		snapshotSize:     snapshotSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider. If instrument creation fails, it returns a no-op recorder.
//
// Configure the provider before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	return NewMetricsRecorderFrom(otel.GetMeterProvider())
}

// NewMetricsRecorderFrom returns a MetricsRecorder backed by provider.
func NewMetricsRecorderFrom(provider metric.MeterProvider) MetricsRecorder {
	m, err := newOtelMetrics(provider.Meter(MeterName))
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// RecordParse records a parse run.
func (m *otelMetrics) RecordParse(ctx context.Context, success bool, eventCount int, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	m.parseRuns.Add(ctx, 1, attrs)
	m.parseLatency.Record(ctx, ms(duration), attrs)
	m.eventsDispatched.Add(ctx, int64(eventCount), attrs)
}

// RecordYield records a yield.
func (m *otelMetrics) RecordYield(ctx context.Context, pause time.Duration) {
	m.yields.Add(ctx, 1)
	m.yieldPause.Record(ctx, ms(pause))
}

// RecordFinalize records a finalize step.
func (m *otelMetrics) RecordFinalize(ctx context.Context, handler string, duration time.Duration, err error) {
	m.finalizeLatency.Record(ctx, ms(duration), metric.WithAttributes(
		attribute.String("handler", handler),
		attribute.Bool("success", err == nil),
	))
}

// RecordHandlerError records a handler failure.
func (m *otelMetrics) RecordHandlerError(ctx context.Context, handler, op string) {
	m.handlerErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("handler", handler),
		attribute.String("operation", op),
	))
}

// RecordSnapshot records a snapshot save.
func (m *otelMetrics) RecordSnapshot(ctx context.Context, handler string, sizeBytes int64) {
	m.snapshotSize.Record(ctx, sizeBytes, metric.WithAttributes(
		attribute.String("handler", handler),
	))
}
