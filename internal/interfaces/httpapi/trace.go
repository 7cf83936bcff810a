package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tcastillov/futbol-data/internal/source"
)

var apiTracer = otel.Tracer("futbol-data/internal/interfaces/httpapi")
var noopSpan = trace.SpanFromContext(context.Background())

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		// No parent span in context (e.g. filtered route like /healthz):
		// avoid creating standalone root spans for internal helpers.
		return ctx, noopSpan
	}
	if !strings.HasPrefix(name, "httpapi.Handler.") {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name)
}

// annotateQuery stamps the request filters on the span so traces can be
// sliced by league or season.
func annotateQuery(span trace.Span, q source.Query) {
	attrs := make([]attribute.KeyValue, 0, 3)
	if q.LeagueCode != "" {
		attrs = append(attrs, attribute.String("futbol.league", q.LeagueCode))
	}
	if q.Season != "" {
		attrs = append(attrs, attribute.String("futbol.season", q.Season))
	}
	if q.TeamID != "" {
		attrs = append(attrs, attribute.String("futbol.team_id", q.TeamID))
	}
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
}
