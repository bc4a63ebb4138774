package observe

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// scopeName is the instrumentation scope for every Mandika meter and tracer.
const scopeName = "github.com/mandika-app/mandika"

// Telemetry owns the OTel SDK providers for the process. Build it once in
// main with [Setup] and shut it down on exit so the final metric scrape and
// span batch are not lost.
type Telemetry struct {
	meters *sdkmetric.MeterProvider
	traces *sdktrace.TracerProvider
}

// settings collects the Setup options.
type settings struct {
	serviceName    string
	serviceVersion string
	traceExporter  sdktrace.SpanExporter
	registerer     prometheus.Registerer
}

// Option configures [Setup].
type Option func(*settings)

// WithServiceName sets the service name reported in telemetry.
// Default: "mandika".
func WithServiceName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.serviceName = name
		}
	}
}

// WithServiceVersion sets the service version reported in telemetry.
func WithServiceVersion(version string) Option {
	return func(s *settings) { s.serviceVersion = version }
}

// WithTraceExporter sets a span exporter, typically OTLP. Without one, spans
// are recorded for trace ids and log correlation but never leave the
// process.
func WithTraceExporter(exp sdktrace.SpanExporter) Option {
	return func(s *settings) { s.traceExporter = exp }
}

// WithRegisterer sets the Prometheus registry metrics are bridged into.
// Default: [prometheus.DefaultRegisterer], which is what promhttp serves.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *settings) {
		if reg != nil {
			s.registerer = reg
		}
	}
}

// Setup builds the metric and trace providers, bridges metrics into
// Prometheus for the /metrics endpoint and registers both providers as the
// OTel globals. The returned [Telemetry] must be shut down when the process
// exits.
func Setup(opts ...Option) (*Telemetry, error) {
	s := settings{
		serviceName: "mandika",
		registerer:  prometheus.DefaultRegisterer,
	}
	for _, o := range opts {
		o(&s)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(s.serviceName),
			semconv.ServiceVersion(s.serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: building resource: %w", err)
	}

	bridge, err := promexporter.New(promexporter.WithRegisterer(s.registerer))
	if err != nil {
		return nil, fmt.Errorf("observe: prometheus bridge: %w", err)
	}

	t := &Telemetry{
		meters: sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(bridge),
		),
	}

	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if s.traceExporter != nil {
		traceOpts = append(traceOpts, sdktrace.WithBatcher(s.traceExporter))
	}
	t.traces = sdktrace.NewTracerProvider(traceOpts...)

	otel.SetMeterProvider(t.meters)
	otel.SetTracerProvider(t.traces)
	return t, nil
}

// Shutdown flushes and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.meters.Shutdown(ctx),
		t.traces.Shutdown(ctx),
	)
}
