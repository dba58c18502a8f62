// Package telemetry sets up the OpenTelemetry SDK of the process.
package telemetry

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config is the configuration of the exporters.
// Empty endpoints fall back to the OTEL_EXPORTER_OTLP_* environment variables.
type Config struct {
	Enabled        bool          `yaml:"enabled"`
	ServiceName    string        `yaml:"service_name"`
	ServiceVersion string        `yaml:"service_version"`
	TraceEndpoint  string        `yaml:"trace_endpoint"`
	MetricEndpoint string        `yaml:"metric_endpoint"`
	SampleRatio    float64       `yaml:"sample_ratio"`
	MetricInterval time.Duration `yaml:"metric_interval"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Enabled:        false,
		ServiceName:    "j1939-parser",
		ServiceVersion: "0.1.0",
		SampleRatio:    0.05,
		MetricInterval: time.Second,
	}
}

// Providers holds the installed SDK providers.
type Providers struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// Init installs the global tracer and meter providers exporting over OTLP,
// traces over gRPC and metrics over HTTP.
func Init(ctx context.Context, cfg *Config) (*Providers, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create resource")
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
	if cfg.TraceEndpoint != "" {
		traceOpts = append(traceOpts, otlptracegrpc.WithEndpoint(cfg.TraceEndpoint))
	}
	traceExporter, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "create trace exporter")
	}

	metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
	if cfg.MetricEndpoint != "" {
		metricOpts = append(metricOpts, otlpmetrichttp.WithEndpoint(cfg.MetricEndpoint))
	}
	metricExporter, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "create metric exporter")
	}

	p := &Providers{
		tracerProvider: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
		),
		meterProvider: sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(
				sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(cfg.MetricInterval)),
			),
		),
	}

	otel.SetTracerProvider(p.tracerProvider)
	otel.SetMeterProvider(p.meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return p, nil
}

// Close flushes and shuts down the providers.
func (p *Providers) Close(ctx context.Context) error {
	return errors.CombineErrors(
		p.tracerProvider.Shutdown(ctx),
		p.meterProvider.Shutdown(ctx),
	)
}
