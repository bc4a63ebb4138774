// Package observe provides application-wide observability primitives for
// Mandika: OpenTelemetry metrics, tracing helpers, and trace-aware
// structured logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. [Setup] bridges
// them into a Prometheus registry so they can be scraped via the standard
// /metrics endpoint. A package-level default [Metrics] instance
// ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per operation ---

	// ResolveDuration tracks commodity resolution latency.
	ResolveDuration metric.Float64Histogram

	// AdviseDuration tracks negotiation advice latency.
	AdviseDuration metric.Float64Histogram

	// TranslateDuration tracks end-to-end translation latency, cache hits
	// included.
	TranslateDuration metric.Float64Histogram

	// --- Counters ---

	// Resolutions counts resolver lookups. Use with attribute:
	//   attribute.String("status", "match"|"no_match")
	Resolutions metric.Int64Counter

	// Suggestions counts advisor suggestions. Use with attribute:
	//   attribute.String("kind", ...)
	Suggestions metric.Int64Counter

	// Translations counts translation requests. Use with attributes:
	//   attribute.String("source", "cache"|"backend"|"identity"),
	//   attribute.String("status", "ok"|"degraded")
	Translations metric.Int64Counter

	// CacheEvictions counts translation cache evictions.
	CacheEvictions metric.Int64Counter

	// SlowTranslations counts translations that blew the soft latency
	// budget.
	SlowTranslations metric.Int64Counter

	// ReviewFlags counts low-confidence results flagged for human review.
	ReviewFlags metric.Int64Counter

	// JournalEntries counts recorded sales. Use with attribute:
	//   attribute.String("commodity", ...)
	JournalEntries metric.Int64Counter

	// --- Error counters ---

	// BackendErrors counts translation backend failures after retries.
	BackendErrors metric.Int64Counter

	// --- Gauges ---

	// CacheEntries tracks the number of live translation cache entries.
	CacheEntries metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time, labelled with
	// the semconv request method and URL path attributes.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Resolver
// and advisor calls land in the sub-millisecond buckets; backend
// translations reach into the seconds.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(scopeName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ResolveDuration, err = m.Float64Histogram("mandika.resolve.duration",
		metric.WithDescription("Latency of commodity resolution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AdviseDuration, err = m.Float64Histogram("mandika.advise.duration",
		metric.WithDescription("Latency of negotiation advice."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranslateDuration, err = m.Float64Histogram("mandika.translate.duration",
		metric.WithDescription("End-to-end translation latency including cache hits."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Resolutions, err = m.Int64Counter("mandika.resolve.lookups",
		metric.WithDescription("Total resolver lookups by status."),
	); err != nil {
		return nil, err
	}
	if met.Suggestions, err = m.Int64Counter("mandika.advise.suggestions",
		metric.WithDescription("Total advisor suggestions by kind."),
	); err != nil {
		return nil, err
	}
	if met.Translations, err = m.Int64Counter("mandika.translate.requests",
		metric.WithDescription("Total translation requests by source and status."),
	); err != nil {
		return nil, err
	}
	if met.CacheEvictions, err = m.Int64Counter("mandika.translate.cache_evictions",
		metric.WithDescription("Total translation cache evictions."),
	); err != nil {
		return nil, err
	}
	if met.SlowTranslations, err = m.Int64Counter("mandika.translate.slow",
		metric.WithDescription("Translations exceeding the soft latency budget."),
	); err != nil {
		return nil, err
	}
	if met.ReviewFlags, err = m.Int64Counter("mandika.translate.review_flags",
		metric.WithDescription("Low-confidence translations flagged for review."),
	); err != nil {
		return nil, err
	}
	if met.JournalEntries, err = m.Int64Counter("mandika.journal.entries",
		metric.WithDescription("Total recorded sales by commodity."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.BackendErrors, err = m.Int64Counter("mandika.translate.backend_errors",
		metric.WithDescription("Translation backend failures after retries."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.CacheEntries, err = m.Int64UpDownCounter("mandika.translate.cache_entries",
		metric.WithDescription("Number of live translation cache entries."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("mandika.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordResolution records one resolver lookup with its status.
func (m *Metrics) RecordResolution(ctx context.Context, status string) {
	m.Resolutions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordSuggestion records one advisor suggestion by kind.
func (m *Metrics) RecordSuggestion(ctx context.Context, kind string) {
	m.Suggestions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}

// RecordTranslation records one translation request with where the result
// came from and whether it degraded.
func (m *Metrics) RecordTranslation(ctx context.Context, source, status string) {
	m.Translations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("status", status),
		),
	)
}

// RecordJournalEntry records one journaled sale.
func (m *Metrics) RecordJournalEntry(ctx context.Context, commodity string) {
	m.JournalEntries.Add(ctx, 1,
		metric.WithAttributes(attribute.String("commodity", commodity)),
	)
}
