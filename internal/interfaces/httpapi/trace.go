package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var (
	apiTracer = otel.Tracer("roster-sync/internal/interfaces/httpapi")
	noopSpan  = trace.SpanFromContext(context.Background())
)

// startSpan opens a handler span under the request span. Helpers and
// middleware get a noop span so only handler entry points show up in
// traces; routes filtered out of tracing (health probes) have no valid
// parent and get a noop span for the same reason.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, noopSpan
	}
	if !shouldCreateHTTPAPISpan(name) {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name)
}

func shouldCreateHTTPAPISpan(name string) bool {
	return strings.HasPrefix(name, "httpapi.Handler.")
}
