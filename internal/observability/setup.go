package observability

import (
	"context"

	"github.com/renchester/blog-api/internal/infrastructure/observability"
)

// Setup configures logging and tracing for a process and returns the tracer shutdown.
func Setup(ctx context.Context, serviceName, logLevel, otlpEndpoint string) (func(context.Context) error, error) {
	observability.InitLogger(logLevel)
	return observability.InitTracing(ctx, serviceName, otlpEndpoint)
}
