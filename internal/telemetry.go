package internal

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "j1939-parser"

// Telemetry groups the logger, the tracer and the meter of a component.
type Telemetry struct {
	kind string
	name string

	l *Logger

	tracer trace.Tracer
	meter  metric.Meter
}

// NewTelemetry returns the telemetry of the component with the given kind and name.
// It uses the global tracer and meter providers.
func NewTelemetry(kind, name string) *Telemetry {
	return &Telemetry{
		kind: kind,
		name: name,

		l: NewLogger(kind, name),

		tracer: otel.GetTracerProvider().Tracer(instrumentationName),
		meter:  otel.GetMeterProvider().Meter(instrumentationName),
	}
}

func (t *Telemetry) Logger() *Logger {
	return t.l
}

func (t *Telemetry) LogDebug(msg string, args ...any) {
	t.l.Debug(msg, args...)
}

func (t *Telemetry) LogInfo(msg string, args ...any) {
	t.l.Info(msg, args...)
}

func (t *Telemetry) LogWarn(msg string, args ...any) {
	t.l.Warn(msg, args...)
}

func (t *Telemetry) LogError(msg string, err error, args ...any) {
	t.l.Error(msg, err, args...)
}

// NewTrace starts a span tagged with the kind and the name of the component.
func (t *Telemetry) NewTrace(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, spanName, opts...)
	span.SetAttributes(
		attribute.String("j1939.component_kind", t.kind),
		attribute.String("j1939.component_name", t.name),
	)
	return ctx, span
}

// InjectTrace writes the span of ctx into carrier
// with the global propagator.
func (t *Telemetry) InjectTrace(ctx context.Context, carrier propagation.TextMapCarrier) {
	otel.GetTextMapPropagator().Inject(ctx, carrier)
}

func (t *Telemetry) getMeterName(name string) string {
	return fmt.Sprintf("%s_%s_%s", t.kind, t.name, name)
}

func observe(fn func() int64) metric.Int64Callback {
	return func(_ context.Context, o metric.Int64Observer) error {
		o.Observe(fn())
		return nil
	}
}

// NewCounter registers a monotonic counter whose value is read from fn
// at every collection.
func (t *Telemetry) NewCounter(name string, fn func() int64) {
	counterName := t.getMeterName(name)

	_, err := t.meter.Int64ObservableCounter(counterName, metric.WithInt64Callback(observe(fn)))
	if err != nil {
		t.LogError("failed to create counter", err, "name", counterName)
		return
	}

	t.LogDebug("created counter", "name", counterName)
}

// NewUpDownCounter registers a counter that can decrease,
// its value is read from fn at every collection.
func (t *Telemetry) NewUpDownCounter(name string, fn func() int64) {
	counterName := t.getMeterName(name)

	_, err := t.meter.Int64ObservableUpDownCounter(counterName, metric.WithInt64Callback(observe(fn)))
	if err != nil {
		t.LogError("failed to create up/down counter", err, "name", counterName)
		return
	}

	t.LogDebug("created up/down counter", "name", counterName)
}

// NewHistogram returns a histogram. On failure it returns
// a no-op histogram so callers can record unconditionally.
func (t *Telemetry) NewHistogram(name string, opts ...metric.Int64HistogramOption) metric.Int64Histogram {
	histName := t.getMeterName(name)

	hist, err := t.meter.Int64Histogram(histName, opts...)
	if err != nil {
		t.LogError("failed to create histogram", err, "name", histName)
		return noop.Int64Histogram{}
	}

	t.LogDebug("created histogram", "name", histName)

	return hist
}
