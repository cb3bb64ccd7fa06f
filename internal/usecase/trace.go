package usecase

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var (
	usecaseTracer   = otel.Tracer("roster-sync/internal/usecase")
	usecaseNoopSpan = trace.SpanFromContext(context.Background())
)

// startUsecaseSpan opens a child span under the request span. Without a
// valid parent (direct service calls in tests, filtered routes) it returns
// a noop span so services never emit orphan roots.
func startUsecaseSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if strings.TrimSpace(name) == "" {
		return ctx, usecaseNoopSpan
	}
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}
	return usecaseTracer.Start(ctx, name)
}
