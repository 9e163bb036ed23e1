package otelexport

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/gorepl/internal/tracing"
)

func TestUUIDToTraceID(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	tid := uuidToTraceID(id)
	if tid == (trace.TraceID{}) {
		t.Error("expected non-zero trace ID")
	}
	for i := range tid {
		if tid[i] != id[i] {
			t.Fatalf("byte %d: expected %02x, got %02x", i, id[i], tid[i])
		}
	}
}

func TestUUIDToSpanID(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	sid := uuidToSpanID(id)
	for i := 0; i < 8; i++ {
		if sid[i] != id[8+i] {
			t.Errorf("byte %d: expected %02x, got %02x", i, id[8+i], sid[i])
		}
	}
}

func TestNew_EmptyEndpoint(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Error("expected error for empty endpoint")
	}
}

func TestExporter_NilExporter(t *testing.T) {
	var exp *Exporter
	exp.ExportSpans(context.Background(), []tracing.SpanData{{
		ID:        uuid.New(),
		TraceID:   uuid.New(),
		SpanType:  tracing.SpanRead,
		Name:      "read",
		StartTime: time.Now(),
	}})
	if err := exp.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSpanAttributes(t *testing.T) {
	attrs := spanAttributes(tracing.SpanData{
		ID:       uuid.New(),
		TraceID:  uuid.New(),
		SpanType: tracing.SpanRead,
		Source:   "liner",
		Outcome:  "interrupted",
		Attempts: 2,
	})
	got := map[string]string{}
	for _, kv := range attrs {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	want := map[string]string{
		"gorepl.span_type":     "read",
		"gorepl.input.source":  "liner",
		"gorepl.outcome":       "interrupted",
		"gorepl.read.attempts": "2",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
	if _, ok := got["gorepl.input_preview"]; ok {
		t.Error("empty preview should be omitted")
	}
}

func TestExportSpans_StatusAndRetryEvent(t *testing.T) {
	mem := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(mem))
	exp := &Exporter{provider: tp, tracer: tp.Tracer("test")}
	defer exp.Shutdown(context.Background())

	session := uuid.New()
	parent := uuid.New()
	start := time.Now()
	exp.ExportSpans(context.Background(), []tracing.SpanData{
		{
			ID: uuid.New(), TraceID: session, ParentSpanID: &parent,
			SpanType: tracing.SpanRead, Name: "read", Outcome: "line", Attempts: 3,
			StartTime: start, EndTime: start.Add(time.Millisecond), Status: "ok",
		},
		{
			ID: uuid.New(), TraceID: session, ParentSpanID: &parent,
			SpanType: tracing.SpanEval, Name: "eval", Outcome: "abort",
			StartTime: start, EndTime: start.Add(time.Millisecond), Status: "error", Error: "boom",
		},
	})

	spans := mem.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}
	read, eval := spans[0], spans[1]

	if read.Status.Code != codes.Ok {
		t.Errorf("read status = %v, want Ok", read.Status.Code)
	}
	if len(read.Events) != 1 || read.Events[0].Name != "read.retried" {
		t.Errorf("read events = %+v, want one read.retried", read.Events)
	}
	if read.Parent.SpanID() != uuidToSpanID(parent) {
		t.Errorf("parent span = %v, want %v", read.Parent.SpanID(), uuidToSpanID(parent))
	}
	if read.SpanContext.TraceID() != uuidToTraceID(session) {
		t.Errorf("trace id = %v, want session id", read.SpanContext.TraceID())
	}

	if eval.Status.Code != codes.Error || eval.Status.Description != "boom" {
		t.Errorf("eval status = %+v, want Error(boom)", eval.Status)
	}
}
