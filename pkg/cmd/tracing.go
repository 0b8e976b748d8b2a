package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/stepwise/pkg/otelhelper"
	"go.opentelemetry.io/otel/trace"
)

// NewTracer returns an OTLP tracer when enabled and a no-op tracer otherwise. The
// returned shutdown function is always safe to call.
func NewTracer(ctx context.Context, logger *slog.Logger, serviceName string, enabled bool) (trace.Tracer, otelhelper.ShutdownFunc) {
	noopShutdown := func(context.Context) error { return nil }

	if !enabled {
		return otelhelper.NoopTracer(), noopShutdown
	}

	tracer, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		logger.WarnContext(ctx, "Tracing disabled", "error", err)

		return otelhelper.NoopTracer(), noopShutdown
	}

	return tracer, shutdown
}
