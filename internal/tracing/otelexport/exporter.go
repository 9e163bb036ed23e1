package otelexport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/gorepl/internal/tracing"
)

// Config configures the OpenTelemetry OTLP exporter.
type Config struct {
	Endpoint    string            // OTLP endpoint (e.g. "localhost:4317")
	Protocol    string            // "grpc" (default) or "http"
	Insecure    bool              // skip TLS for local dev
	ServiceName string            // OTEL service name (default "gorepl")
	Headers     map[string]string // extra headers (auth tokens, etc.)
	Version     string

	BatchSize    int           // spans per OTLP request, default 100
	BatchTimeout time.Duration // default 5s
}

// Exporter converts REPL spans to OTel spans and exports them via OTLP.
// It implements tracing.SpanExporter.
type Exporter struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// New creates an OTLP exporter with the given config.
func New(ctx context.Context, cfg Config) (*Exporter, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("OTLP endpoint is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 5 * time.Second
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("otel exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(client,
			sdktrace.WithMaxExportBatchSize(cfg.BatchSize),
			sdktrace.WithBatchTimeout(cfg.BatchTimeout),
		),
		sdktrace.WithResource(res),
	)
	return &Exporter{provider: tp, tracer: tp.Tracer("gorepl")}, nil
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	name := cfg.ServiceName
	if name == "" {
		name = "gorepl"
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(name),
			semconv.ServiceVersion(version),
		),
		resource.WithOS(),
		resource.WithProcessPID(),
	)
}

func newClient(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	if cfg.Protocol == "http" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		return otlptracehttp.New(ctx, opts...)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
	}
	return otlptracegrpc.New(ctx, opts...)
}

// ExportSpans replays finished spans into the OTel pipeline.
func (e *Exporter) ExportSpans(ctx context.Context, spans []tracing.SpanData) {
	if e == nil || len(spans) == 0 {
		return
	}
	for _, s := range spans {
		e.exportSpan(ctx, s)
	}
}

func (e *Exporter) exportSpan(ctx context.Context, s tracing.SpanData) {
	traceID := uuidToTraceID(s.TraceID)

	parentCtx := ctx
	if s.ParentSpanID != nil {
		parentSpanCtx := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     uuidToSpanID(*s.ParentSpanID),
			TraceFlags: trace.FlagsSampled,
			Remote:     true,
		})
		parentCtx = trace.ContextWithRemoteSpanContext(parentCtx, parentSpanCtx)
	}

	_, span := e.tracer.Start(parentCtx, s.Name,
		trace.WithTimestamp(s.StartTime),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(spanAttributes(s)...),
	)

	if s.Attempts > 1 {
		// Reads that needed a fallback or retries.
		span.AddEvent("read.retried",
			trace.WithTimestamp(s.EndTime),
			trace.WithAttributes(attribute.Int("attempts", s.Attempts)),
		)
	}
	switch {
	case s.Status != "error":
		span.SetStatus(codes.Ok, "")
	case s.Error != "":
		span.SetStatus(codes.Error, s.Error)
		span.RecordError(errors.New(s.Error))
	default:
		span.SetStatus(codes.Error, s.Outcome)
	}

	span.End(trace.WithTimestamp(s.EndTime))
}

// spanAttributes maps REPL span fields to OTel attributes. The SDK assigns
// its own span ids, so ours travel as attributes for correlation.
func spanAttributes(s tracing.SpanData) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("gorepl.span_type", s.SpanType),
		attribute.String("gorepl.session_id", s.TraceID.String()),
		attribute.String("gorepl.span_id", s.ID.String()),
	}
	if s.Source != "" {
		attrs = append(attrs, attribute.String("gorepl.input.source", s.Source))
	}
	if s.Outcome != "" {
		attrs = append(attrs, attribute.String("gorepl.outcome", s.Outcome))
	}
	if s.Attempts > 0 {
		attrs = append(attrs, attribute.Int("gorepl.read.attempts", s.Attempts))
	}
	if s.InputPreview != "" {
		attrs = append(attrs, attribute.String("gorepl.input_preview", s.InputPreview))
	}
	return attrs
}

// Shutdown flushes remaining spans and stops the provider.
func (e *Exporter) Shutdown(ctx context.Context) error {
	if e == nil {
		return nil
	}
	slog.Debug("otel exporter shutting down")
	return e.provider.Shutdown(ctx)
}

// uuidToTraceID converts a UUID to an OTel TraceID (16 bytes).
func uuidToTraceID(id [16]byte) trace.TraceID {
	return trace.TraceID(id)
}

// uuidToSpanID converts a UUID to an OTel SpanID (last 8 bytes of the UUID).
func uuidToSpanID(id [16]byte) trace.SpanID {
	var sid trace.SpanID
	copy(sid[:], id[8:16])
	return sid
}
