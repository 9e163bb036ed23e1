package repl

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/gorepl/internal/bus"
	"github.com/nextlevelbuilder/gorepl/internal/linesource"
	"github.com/nextlevelbuilder/gorepl/internal/recovery"
	"github.com/nextlevelbuilder/gorepl/internal/terminal"
	"github.com/nextlevelbuilder/gorepl/internal/tracing"
)

var (
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("repl: session already started")

	// ErrNoSource is the read fault when neither a source nor a default
	// source is configured.
	ErrNoSource = errors.New("repl: no input source")
)

type spanID = *uuid.UUID

// ExitReason tells deliberate exits apart.
type ExitReason int

const (
	ExitExhausted ExitReason = iota // input ran out for good
	ExitRequested                   // the evaluator asked to stop
	ExitCanceled                    // the context passed to Start ended
)

func (r ExitReason) String() string {
	switch r {
	case ExitExhausted:
		return "exhausted"
	case ExitRequested:
		return "requested"
	case ExitCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("exit(%d)", int(r))
	}
}

// Exit describes a deliberate end of the loop. Value is set for
// ExitRequested.
type Exit struct {
	Reason ExitReason
	Value  any
}

// Start runs the session until input is exhausted, the evaluator stops it or
// ctx ends. A non-nil error is either the error the evaluator aborted with,
// returned unchanged, or a *recovery.UnrecoverableError from the input side.
// Input faults outside Options.Retry.Kinds are not retried: they end the loop
// as that *recovery.UnrecoverableError once the epilogue has run.
// The after_session hook runs exactly once on every path, including panics.
// One interrupt subscription is held for the whole session; an interrupt
// cancels the blocked read, the pause between retries or the running Eval.
func (s *Session) Start(ctx context.Context) (exit Exit, err error) {
	if s.started {
		return Exit{}, ErrAlreadyStarted
	}
	s.started = true

	log := s.opts.Logger.With("session", s.ID())
	root := s.opts.Tracer.Begin(s.id, nil, tracing.SpanSession, "repl")
	s.publish(bus.EventSessionStart, nil, map[string]any{"source": s.SourceName()})
	log.Debug("repl session starting", "source", s.SourceName(), "interactive", s.Interactive())

	defer func() {
		if herr := s.eval.ExecHook(context.WithoutCancel(ctx), HookAfterSession, s.opts.Output, s); herr != nil {
			log.Warn("after_session hook failed", "error", herr)
			if err == nil {
				err = fmt.Errorf("after_session hook: %w", herr)
			}
		}
		s.Close()
		reason := exit.Reason.String()
		if err != nil {
			reason = "error"
		}
		s.publish(bus.EventSessionEnd, err, map[string]any{"reason": reason})
		root.End(reason, err)
		log.Debug("repl session ended", "reason", reason, "error", err)
	}()

	if err := s.eval.ExecHook(ctx, HookBeforeSession, s.opts.Output, s); err != nil {
		return Exit{}, fmt.Errorf("before_session hook: %w", err)
	}
	if s.opts.CursorReset && s.Interactive() {
		io.WriteString(s.opts.Output, s.opts.Probe.Family.CursorReset())
		terminal.Flush(s.opts.Output)
	}

	if s.opts.Interrupts != nil {
		relay := recovery.NewRelay(s.opts.Interrupts)
		defer relay.Close()
		s.interrupts = relay
	}
	pipeline := recovery.Default(s.interrupts, s.opts.Retry)
	env := &recovery.Env{
		Out:           s.opts.Output,
		Interactive:   s.Interactive(),
		Session:       s.ID(),
		SwapToDefault: s.SwapToDefault,
		Events:        s.opts.Events,
	}

	for {
		ex, done, cerr := s.cycle(ctx, pipeline, env, root.ID())
		if done || cerr != nil {
			return ex, cerr
		}
	}
}

// cycle performs one read-eval step. done reports that the loop must end.
func (s *Session) cycle(ctx context.Context, p *recovery.Pipeline, env *recovery.Env, parent spanID) (Exit, bool, error) {
	if s.eval.IsBufferEmpty() {
		s.tracker.Reset()
	}
	prefix := ""
	if s.opts.AutoIndent {
		prefix = s.tracker.Prefix()
	}
	base := s.eval.CurrentPrompt()
	prompt := base + prefix

	span := s.opts.Tracer.Begin(s.id, parent, tracing.SpanRead, "read")
	res, err := p.Read(ctx, env, s.SourceName, func(actx context.Context) (string, error) {
		src := s.source
		if src == nil {
			return "", ErrNoSource
		}
		linesource.InstallCompleter(src, s.Complete)
		return linesource.Read(actx, src, prompt, s.opts.Output)
	})
	span.SetSource(s.SourceName())
	span.SetAttempts(res.Attempts)

	if err != nil {
		span.End("error", err)
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			s.newlineIfInteractive()
			return Exit{Reason: ExitCanceled}, true, nil
		}
		return Exit{}, true, err
	}
	span.End(res.Kind.String(), nil)

	var in Input
	switch res.Kind {
	case recovery.OutcomeInterrupted:
		fmt.Fprintln(s.opts.Output)
		s.eval.ResetBuffer()
		s.tracker.Reset()
		return Exit{}, false, nil
	case recovery.OutcomeNoMoreInput:
		s.newlineIfInteractive()
		return Exit{Reason: ExitExhausted}, true, nil
	case recovery.OutcomeEndOfSession:
		s.newlineIfInteractive()
		in = Input{EndOfSession: true}
	default:
		in = Input{Text: s.correct(base, prefix, res.Text)}
	}

	return s.evaluate(ctx, in, parent)
}

// correct reindents line and repaints it when the echo differs.
func (s *Session) correct(base, prefix, line string) string {
	if !s.opts.AutoIndent {
		return line
	}
	echoed := prefix + line
	c := s.tracker.Advance(echoed)
	if !c.Changed || !linesource.Echoes(s.source) {
		return c.Text
	}
	wrote, err := s.painter.Repaint(base, echoed, c.Text)
	if err != nil {
		s.opts.Logger.Debug("indent repaint failed", "error", err)
	}
	if wrote {
		s.publish(bus.EventRepaint, nil, map[string]any{"depth": c.Depth})
	}
	return c.Text
}

func (s *Session) evaluate(ctx context.Context, in Input, parent spanID) (Exit, bool, error) {
	span := s.opts.Tracer.Begin(s.id, parent, tracing.SpanEval, "eval")
	span.SetInput(in.Text)

	ectx, release := recovery.WithInterrupt(ctx, s.interrupts)
	v := s.eval.Eval(ectx, in)
	interrupted := recovery.Interrupted(ectx)
	release()
	if interrupted {
		s.publish(bus.EventInterrupted, nil, map[string]any{"during": "eval"})
	}
	span.End(v.String(), v.Err)
	s.publish(bus.EventVerdict, v.Err, map[string]any{"verdict": v.String()})

	if s.eval.IsBufferEmpty() {
		s.tracker.Reset()
	}

	switch v.Kind {
	case VerdictStop:
		return Exit{Reason: ExitRequested, Value: v.Value}, true, nil
	case VerdictAbort:
		err := v.Err
		if err == nil {
			err = errors.New("repl: evaluator aborted without an error")
		}
		return Exit{}, true, err
	}
	return Exit{}, false, nil
}

func (s *Session) newlineIfInteractive() {
	if s.Interactive() {
		fmt.Fprintln(s.opts.Output)
	}
}
