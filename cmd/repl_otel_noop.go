//go:build !otel

package cmd

import (
	"context"
	"log/slog"

	"github.com/nextlevelbuilder/gorepl/internal/config"
	"github.com/nextlevelbuilder/gorepl/internal/tracing"
)

// newSpanExporter is a no-op when built without the "otel" tag.
// Build with `go build -tags otel` to enable OpenTelemetry export.
func newSpanExporter(_ context.Context, cfg *config.Config) tracing.SpanExporter {
	if cfg.Telemetry.Enabled {
		slog.Warn("telemetry is enabled but this binary was built without -tags otel")
	}
	return nil
}
