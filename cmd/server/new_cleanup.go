package main

import (
	"context"
	"io"
	"log/slog"
)

// shutdowner is the part of the HTTP server cleanup needs, so tests can
// check ordering without a real listener.
type shutdowner interface {
	Shutdown(context.Context) error
}

// newCleanup builds the shutdown hook: stop accepting requests and drain
// in-flight ones, then close the store, then flush telemetry so the
// previous steps are still exported.
func newCleanup(server shutdowner, store io.Closer, flushTelemetry func(context.Context) error) func(context.Context) {
	return func(ctx context.Context) {
		if server != nil {
			if err := server.Shutdown(ctx); err != nil {
				slog.ErrorContext(ctx, "failed to shut down HTTP server", "error", err)
			}
		}

		if store != nil {
			if err := store.Close(); err != nil {
				slog.ErrorContext(ctx, "failed to close store", "error", err)
			}
		}

		if flushTelemetry != nil {
			if err := flushTelemetry(ctx); err != nil {
				slog.ErrorContext(ctx, "failed to shut down telemetry", "error", err)
			}
		}
	}
}
