// Package recovery implements the ordered recovery policies wrapped around a
// raw line read: interrupt handling, end-of-input fallback and bounded retry
// of allow-listed faults.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nextlevelbuilder/gorepl/internal/bus"
	"github.com/nextlevelbuilder/gorepl/internal/linesource"
)

// Outcome tags the result of one read call.
type Outcome int

const (
	OutcomeLine         Outcome = iota // a line was read
	OutcomeEndOfSession                // the user explicitly ended the session
	OutcomeInterrupted                 // the user cancelled the line
	OutcomeNoMoreInput                 // input is exhausted or unusable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLine:
		return "line"
	case OutcomeEndOfSession:
		return "end_of_session"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomeNoMoreInput:
		return "no_more_input"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is exactly one outcome; Text is set only for OutcomeLine.
type Result struct {
	Kind     Outcome
	Text     string
	Attempts int // raw reads the call took
}

// Attempt is what one raw read produced.
type Attempt struct {
	N      int    // 1-based attempt number within the read call
	Source string // adapter the attempt was made against
	Line   string
	Err    error
	Cause  error // cancellation cause of the attempt context, if any
}

// Action is a policy's verdict on an attempt.
type Action int

const (
	Pass  Action = iota // not mine, ask the next policy
	Retry               // read again
	Final               // stop with Decision.Result
)

type Decision struct {
	Action Action
	Result Result

	// Wait, when set on Retry, runs before the next attempt under the same
	// interruptible context as a read.
	Wait func(ctx context.Context) error
}

func pass() Decision { return Decision{Action: Pass} }

func retry() Decision { return Decision{Action: Retry} }

func final(kind Outcome) Decision {
	return Decision{Action: Final, Result: Result{Kind: kind}}
}

// Env is what policies may touch while handling an attempt.
type Env struct {
	Out         io.Writer
	Interactive bool
	Session     string

	// SwapToDefault replaces the active adapter with the process default and
	// returns its name.
	SwapToDefault func() string

	Events *bus.Bus
}

func (e *Env) publish(name string, a Attempt, attrs map[string]any) {
	e.Events.Publish(bus.Event{Name: name, Session: e.Session, Source: a.Source, Err: a.Err, Attrs: attrs})
}

// Handler decides on one attempt. It is created fresh for every read call so
// all per-call state (fallback used, budget spent) lives in its closure.
type Handler func(env *Env, a Attempt) Decision

// Policy is one recovery layer.
type Policy interface {
	Name() string
	Begin() Handler
}

// Attacher is implemented by policies that need to observe the attempt
// itself, not only its result.
type Attacher interface {
	Attach(ctx context.Context) (context.Context, func())
}

// ReadFunc performs one raw read against the currently active adapter.
type ReadFunc func(ctx context.Context) (string, error)

// Pipeline applies its policies, innermost first, to each raw read.
type Pipeline struct {
	policies []Policy
}

// New composes policies in the given order.
func New(policies ...Policy) *Pipeline {
	return &Pipeline{policies: policies}
}

// Default returns the standard composition: Interrupt, EndOfInput,
// BoundedRetry.
func Default(sig Signals, cfg RetryConfig) *Pipeline {
	return New(Interrupt(sig), EndOfInput(), BoundedRetry(cfg))
}

// Policies returns the policy names in application order.
func (p *Pipeline) Policies() []string {
	names := make([]string, len(p.policies))
	for i, pol := range p.policies {
		names[i] = pol.Name()
	}
	return names
}

// Read runs read until a policy returns a final outcome, the read succeeds,
// or the fault is not recoverable. source reports the active adapter name
// and is consulted per attempt because policies may swap adapters.
func (p *Pipeline) Read(ctx context.Context, env *Env, source func() string, read ReadFunc) (Result, error) {
	handlers := make([]Handler, len(p.policies))
	for i, pol := range p.policies {
		handlers[i] = pol.Begin()
	}

	n := 1
	a := p.attempt(ctx, n, source(), read)
	for {
		if ctx.Err() != nil && !errors.Is(a.Cause, linesource.ErrInterrupted) {
			return Result{}, ctx.Err()
		}

		d := decide(handlers, env, a)
		switch d.Action {
		case Final:
			d.Result.Attempts = n
			return d.Result, nil
		case Retry:
			if d.Wait != nil {
				if cause := p.pause(ctx, d.Wait); cause != nil {
					// Seen by the policies like an interrupted read.
					a = Attempt{N: n, Source: source(), Cause: cause}
					continue
				}
			}
			n++
			a = p.attempt(ctx, n, source(), read)
			continue
		}

		switch {
		case a.Err == nil:
			return Result{Kind: OutcomeLine, Text: a.Line, Attempts: n}, nil
		case errors.Is(a.Err, linesource.ErrEndOfSession):
			return Result{Kind: OutcomeEndOfSession, Attempts: n}, nil
		default:
			return Result{}, &UnrecoverableError{Source: a.Source, Err: a.Err}
		}
	}
}

func decide(handlers []Handler, env *Env, a Attempt) Decision {
	for _, h := range handlers {
		if d := h(env, a); d.Action != Pass {
			return d
		}
	}
	return pass()
}

// attach applies every Attacher to ctx; release undoes them in reverse.
func (p *Pipeline) attach(ctx context.Context) (context.Context, func()) {
	var releases []func()
	for _, pol := range p.policies {
		if at, ok := pol.(Attacher); ok {
			var release func()
			ctx, release = at.Attach(ctx)
			releases = append(releases, release)
		}
	}
	return ctx, func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
}

// pause runs wait and returns the cancellation cause if it was cut short.
func (p *Pipeline) pause(ctx context.Context, wait func(context.Context) error) error {
	wctx, release := p.attach(ctx)
	defer release()
	if err := wait(wctx); err != nil {
		if wctx.Err() != nil {
			return context.Cause(wctx)
		}
		slog.Debug("retry pacing failed", "error", err)
	}
	return nil
}

func (p *Pipeline) attempt(ctx context.Context, n int, source string, read ReadFunc) Attempt {
	actx, release := p.attach(ctx)
	line, err := read(actx)
	a := Attempt{N: n, Source: source, Line: line, Err: err}
	if actx.Err() != nil {
		a.Cause = context.Cause(actx)
	}
	release()
	return a
}
