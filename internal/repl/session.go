package repl

import (
	"io"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/gorepl/internal/bus"
	"github.com/nextlevelbuilder/gorepl/internal/indent"
	"github.com/nextlevelbuilder/gorepl/internal/linesource"
	"github.com/nextlevelbuilder/gorepl/internal/recovery"
)

// Session is the state of one REPL run: the evaluator, the active input
// source and the indentation tracker. It is driven by a single goroutine.
type Session struct {
	id      uuid.UUID
	eval    Evaluator
	opts    Options
	source  linesource.Source
	tracker *indent.Tracker
	painter *indent.Repainter
	started bool

	interrupts recovery.Signals // session-wide relay, nil without Options.Interrupts
}

// NewSession prepares a session reading from initial, or from
// opts.DefaultSource when initial is nil. A non-default initial source is
// owned by the session and closed when it is replaced or the session ends.
func NewSession(eval Evaluator, opts Options, initial linesource.Source) *Session {
	opts = opts.withDefaults()
	if initial == nil {
		initial = opts.DefaultSource
	}
	return &Session{
		id:      uuid.New(),
		eval:    eval,
		opts:    opts,
		source:  initial,
		tracker: indent.NewTracker(opts.grammar(eval), opts.IndentUnit),
		painter: indent.NewRepainter(opts.Output, opts.Probe, opts.CorrectOnTerminal),
	}
}

// ID is the session id used in events and traces.
func (s *Session) ID() string { return s.id.String() }

// Source is the active input source.
func (s *Session) Source() linesource.Source { return s.source }

// SourceName is the active source's name, or "none".
func (s *Session) SourceName() string {
	if s.source == nil {
		return "none"
	}
	return s.source.Name()
}

// Output is the sink prompts and diagnostics go to.
func (s *Session) Output() io.Writer { return s.opts.Output }

// Interactive reports whether output is a terminal.
func (s *Session) Interactive() bool { return s.opts.Probe.Interactive }

// Depth is the current indentation depth.
func (s *Session) Depth() int { return s.tracker.Depth() }

// SetSource makes src the active input, e.g. to feed a script through the
// session. The replaced source is closed unless it is the default.
func (s *Session) SetSource(src linesource.Source) {
	if src == nil || src == s.source {
		return
	}
	from := s.SourceName()
	s.release(s.source)
	s.source = src
	s.opts.Logger.Debug("input source changed", "session", s.ID(), "from", from, "to", src.Name())
}

// SwapToDefault switches back to the default source and returns its name.
func (s *Session) SwapToDefault() string {
	if s.opts.DefaultSource != nil && s.source != s.opts.DefaultSource {
		s.release(s.source)
		s.source = s.opts.DefaultSource
	}
	return s.SourceName()
}

// Complete is the completion callback installed on the active source.
func (s *Session) Complete(line string) []string {
	return s.eval.Completion(line)
}

// Close releases the active source unless it is the default.
func (s *Session) Close() {
	s.release(s.source)
	if s.source != s.opts.DefaultSource {
		s.source = s.opts.DefaultSource
	}
}

func (s *Session) release(src linesource.Source) {
	if src == nil || src == s.opts.DefaultSource {
		return
	}
	if err := linesource.Close(src); err != nil {
		s.opts.Logger.Warn("close input source", "source", src.Name(), "error", err)
	}
}

func (s *Session) publish(name string, err error, attrs map[string]any) {
	s.opts.Events.Publish(bus.Event{Name: name, Session: s.ID(), Source: s.SourceName(), Err: err, Attrs: attrs})
}
