package postgres

import (
	"time"

	"github.com/renchester/blog-api/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// observe closes out a repository call: metrics always, span status on error.
func observe(span trace.Span, method string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	observability.ObserveRepository(method, start, err)
}
