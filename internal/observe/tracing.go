package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns the Mandika tracer from the globally registered provider.
func Tracer() trace.Tracer {
	return otel.Tracer(scopeName)
}

// Span starts a named span and returns the updated context. The caller must
// end the span.
func Span(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(scopeName).Start(ctx, name, opts...)
}

// TraceID returns the hex trace id of the span in ctx, or the empty string
// when no recording span is present. It doubles as the correlation id echoed
// to HTTP clients.
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default slog logger enriched with the trace_id and
// span_id from ctx, so log lines can be joined to their trace. Without an
// active span it is just [slog.Default].
func Logger(ctx context.Context) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return slog.Default()
	}
	return slog.Default().With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
}
