package tracing

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	defaultFlushInterval = 5 * time.Second
	defaultBufferSize    = 1000
	previewMaxLen        = 200
)

// Span kinds emitted by the REPL.
const (
	SpanSession = "session"
	SpanRead    = "read"
	SpanEval    = "eval"
)

// SpanData is one finished span. TraceID is the session id, so every read
// and eval of a session shares a trace.
type SpanData struct {
	ID           uuid.UUID
	TraceID      uuid.UUID
	ParentSpanID *uuid.UUID
	SpanType     string
	Name         string
	Source       string // input adapter for read spans
	Outcome      string // read outcome or eval verdict
	Attempts     int
	InputPreview string
	StartTime    time.Time
	EndTime      time.Time
	Status       string // "ok" or "error"
	Error        string
}

// Duration is the wall time the span covered.
func (s SpanData) Duration() time.Duration { return s.EndTime.Sub(s.StartTime) }

// SpanExporter receives flushed spans (e.g. OpenTelemetry OTLP).
type SpanExporter interface {
	ExportSpans(ctx context.Context, spans []SpanData)
	Shutdown(ctx context.Context) error
}

// Collector buffers spans in memory and hands them to the exporter in
// batches. A nil *Collector discards everything.
type Collector struct {
	spanCh chan SpanData
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	interval time.Duration
	exporter SpanExporter
}

// NewCollector creates a collector that flushes every interval (0 selects
// the default).
func NewCollector(interval time.Duration) *Collector {
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	return &Collector{
		spanCh:   make(chan SpanData, defaultBufferSize),
		stopCh:   make(chan struct{}),
		interval: interval,
	}
}

// SetExporter attaches an external span exporter. Call before Start.
func (c *Collector) SetExporter(exp SpanExporter) {
	c.exporter = exp
}

// Start begins the background flush loop.
func (c *Collector) Start() {
	if c == nil {
		return
	}
	c.wg.Add(1)
	go c.flushLoop()
	slog.Debug("tracing collector started")
}

// Stop flushes remaining spans and shuts the exporter down. Safe to call
// more than once.
func (c *Collector) Stop() {
	if c == nil {
		return
	}
	c.once.Do(func() {
		close(c.stopCh)
		c.wg.Wait()

		if c.exporter != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.exporter.Shutdown(ctx); err != nil {
				slog.Warn("tracing: span exporter shutdown failed", "error", err)
			}
		}
		slog.Debug("tracing collector stopped")
	})
}

// Begin starts a span; finish it with End.
func (c *Collector) Begin(traceID uuid.UUID, parent *uuid.UUID, spanType, name string) *Span {
	if c == nil {
		return nil
	}
	return &Span{c: c, data: SpanData{
		ID:           uuid.New(),
		TraceID:      traceID,
		ParentSpanID: parent,
		SpanType:     spanType,
		Name:         name,
		StartTime:    time.Now().UTC(),
	}}
}

// EmitSpan enqueues a span. It drops the span if the buffer is full.
func (c *Collector) EmitSpan(span SpanData) {
	if c == nil {
		return
	}
	if span.ID == uuid.Nil {
		span.ID = uuid.New()
	}
	if span.EndTime.IsZero() {
		span.EndTime = time.Now().UTC()
	}

	select {
	case c.spanCh <- span:
	default:
		slog.Warn("tracing: span buffer full, dropping span",
			"span_type", span.SpanType, "name", span.Name)
	}
}

func (c *Collector) flushLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.stopCh:
			c.flush()
			return
		}
	}
}

func (c *Collector) flush() {
	var spans []SpanData
	for {
		select {
		case span := <-c.spanCh:
			spans = append(spans, span)
		default:
			goto done
		}
	}
done:

	if len(spans) == 0 || c.exporter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c.exporter.ExportSpans(ctx, spans)
	slog.Debug("tracing: flushed spans", "count", len(spans))
}

// Span is an in-flight span. A nil *Span ignores every call.
type Span struct {
	c    *Collector
	data SpanData
}

// ID returns the span id, or nil for a nil span.
func (s *Span) ID() *uuid.UUID {
	if s == nil {
		return nil
	}
	id := s.data.ID
	return &id
}

// SetSource records the input adapter a read went to.
func (s *Span) SetSource(name string) {
	if s != nil {
		s.data.Source = name
	}
}

// SetAttempts records how many raw reads a read call took.
func (s *Span) SetAttempts(n int) {
	if s != nil {
		s.data.Attempts = n
	}
}

// SetInput records a preview of the line being evaluated.
func (s *Span) SetInput(text string) {
	if s != nil {
		s.data.InputPreview = truncatePreview(text)
	}
}

// End finishes the span with outcome and an optional error.
func (s *Span) End(outcome string, err error) {
	if s == nil {
		return
	}
	s.data.Outcome = outcome
	s.data.EndTime = time.Now().UTC()
	s.data.Status = "ok"
	if err != nil {
		s.data.Status = "error"
		s.data.Error = err.Error()
	}
	s.c.EmitSpan(s.data)
}

// truncatePreview sanitizes and truncates a string to previewMaxLen bytes.
func truncatePreview(s string) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= previewMaxLen {
		return s
	}
	maxLen := previewMaxLen
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
