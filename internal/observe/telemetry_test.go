package observe

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// saveGlobals snapshots the process-wide otel providers so tests that call
// Setup can restore them afterwards.
func saveGlobals(t *testing.T) {
	t.Helper()
	mp := otel.GetMeterProvider()
	tp := otel.GetTracerProvider()
	t.Cleanup(func() {
		otel.SetMeterProvider(mp)
		otel.SetTracerProvider(tp)
	})
}

func TestSetup_MetricsFlowToRegistry(t *testing.T) {
	saveGlobals(t)

	reg := prometheus.NewRegistry()
	tel, err := Setup(WithServiceName("mandika-test"), WithRegisterer(reg))
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer tel.Shutdown(context.Background())

	counter, err := otel.Meter(scopeName).Int64Counter("bootstrap_probe")
	if err != nil {
		t.Fatalf("creating counter: %v", err)
	}
	counter.Add(context.Background(), 3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gathering: %v", err)
	}
	var total float64
	found := false
	for _, fam := range families {
		if !strings.Contains(fam.GetName(), "bootstrap_probe") {
			continue
		}
		found = true
		for _, m := range fam.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	if !found {
		t.Fatalf("bootstrap_probe not found among %d families", len(families))
	}
	if total != 3 {
		t.Errorf("counter value = %v, want 3", total)
	}
}

func TestSetup_SpansReachExporter(t *testing.T) {
	saveGlobals(t)

	exp := tracetest.NewInMemoryExporter()
	tel, err := Setup(
		WithServiceName("mandika-test"),
		WithServiceVersion("0.0.1-test"),
		WithRegisterer(prometheus.NewRegistry()),
		WithTraceExporter(exp),
	)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	_, span := Span(context.Background(), "bootstrap")
	span.End()

	// The batch processor only flushes on shutdown.
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("exported %d spans, want 1", len(spans))
	}
	if spans[0].Name != "bootstrap" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "bootstrap")
	}

	foundService := false
	for _, attr := range spans[0].Resource.Attributes() {
		if attr.Key == semconv.ServiceNameKey && attr.Value.AsString() == "mandika-test" {
			foundService = true
		}
	}
	if !foundService {
		t.Error("span resource missing service.name=mandika-test")
	}
}

func TestSetup_NoTraceExporter(t *testing.T) {
	saveGlobals(t)

	tel, err := Setup(WithRegisterer(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	// Spans still record, they just have nowhere to go.
	_, span := Span(context.Background(), "noop")
	span.End()

	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
