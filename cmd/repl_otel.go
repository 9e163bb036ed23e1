//go:build otel

package cmd

import (
	"context"
	"log/slog"

	"github.com/nextlevelbuilder/gorepl/internal/config"
	"github.com/nextlevelbuilder/gorepl/internal/tracing"
	"github.com/nextlevelbuilder/gorepl/internal/tracing/otelexport"
)

// newSpanExporter creates the OpenTelemetry OTLP exporter when telemetry is
// enabled. Only compiled with -tags otel.
func newSpanExporter(ctx context.Context, cfg *config.Config) tracing.SpanExporter {
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Endpoint == "" {
		slog.Debug("OTel export available but not enabled (set telemetry.enabled + telemetry.endpoint)")
		return nil
	}

	exp, err := otelexport.New(ctx, otelexport.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		Protocol:    cfg.Telemetry.Protocol,
		Insecure:    cfg.Telemetry.Insecure,
		ServiceName: cfg.Telemetry.ServiceName,
		Headers:     cfg.Telemetry.Headers,
		Version:     Version,
	})
	if err != nil {
		slog.Warn("failed to create OTel exporter", "error", err)
		return nil
	}

	slog.Info("OpenTelemetry OTLP export enabled",
		"endpoint", cfg.Telemetry.Endpoint,
		"protocol", cfg.Telemetry.Protocol,
	)
	return exp
}
