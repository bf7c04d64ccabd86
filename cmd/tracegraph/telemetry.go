package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/observability"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// telemetry holds the stdout trace and metric providers for one CLI run.
type telemetry struct {
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
}

// newStdoutTelemetry exports spans and metrics to w as JSON.
func newStdoutTelemetry(w io.Writer) (*telemetry, error) {
	traceExp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	metricExp, err := stdoutmetric.New(stdoutmetric.WithWriter(w), stdoutmetric.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	return &telemetry{
		tracer: sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp)),
		meter:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp))),
	}, nil
}

// options wires the providers into a processor.
func (t *telemetry) options() []tracegraph.Option {
	if t == nil {
		return nil
	}
	return []tracegraph.Option{
		tracegraph.WithMetrics(observability.NewMetricsRecorderFrom(t.meter)),
		tracegraph.WithTracing(observability.NewSpanManagerFrom(t.tracer)),
	}
}

// shutdown flushes pending spans and metrics.
func (t *telemetry) shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return errors.Join(t.tracer.Shutdown(ctx), t.meter.Shutdown(ctx))
}
