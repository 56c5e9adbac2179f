package service

import (
	"context"

	"github.com/renchester/blog-api/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/trace"
)

// stage is one named step of a session flow. A non-nil error stops the flow.
type stage[S any] struct {
	name string
	run  func(ctx context.Context, state *S) error
}

func runStages[S any](ctx context.Context, flow string, state *S, stages ...stage[S]) error {
	span := trace.SpanFromContext(ctx)
	for _, st := range stages {
		span.AddEvent(st.name)
		if err := st.run(ctx, state); err != nil {
			observability.WithContext(ctx).Debug("session flow stopped",
				"flow", flow,
				"stage", st.name,
				"error", err)
			return err
		}
	}
	return nil
}
