package observe

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// statusWriter captures the status code written by the downstream handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// traceware instruments a single downstream handler. It continues any
// incoming W3C trace context, opens a server span per request, echoes the
// trace id as X-Correlation-ID, records the request duration to
// [Metrics.HTTPRequestDuration] and logs completion with status and timing.
type traceware struct {
	next    http.Handler
	metrics *Metrics
	prop    propagation.TraceContext
}

// Middleware wraps an [http.Handler] with the sidecar server's telemetry.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return &traceware{next: next, metrics: m}
	}
}

func (tw *traceware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	ctx := tw.prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := Span(ctx, "HTTP "+r.Method+" "+r.URL.Path,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.URLPath(r.URL.Path),
		),
	)
	defer span.End()

	if id := TraceID(ctx); id != "" {
		w.Header().Set("X-Correlation-ID", id)
	}
	tw.prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	tw.next.ServeHTTP(sw, r.WithContext(ctx))

	elapsed := time.Since(started)
	span.SetAttributes(semconv.HTTPResponseStatusCode(sw.status))
	tw.metrics.HTTPRequestDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.URLPath(r.URL.Path),
		),
	)

	Logger(ctx).Info("request completed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", sw.status,
		"duration", elapsed,
	)
}
