// Package repl runs the read-eval-print loop: it reads through the recovery
// pipeline, corrects indentation and hands each line to an Evaluator.
package repl

import (
	"context"
	"fmt"
	"io"

	"github.com/nextlevelbuilder/gorepl/internal/indent"
)

// Hook names passed to Evaluator.ExecHook.
const (
	HookBeforeSession = "before_session"
	HookAfterSession  = "after_session"
)

// Input is one submission. EndOfSession marks an explicit end-of-session
// keystroke; Text is empty then.
type Input struct {
	Text         string
	EndOfSession bool
}

// VerdictKind is the loop decision an evaluator returns.
type VerdictKind int

const (
	VerdictContinue VerdictKind = iota
	VerdictStop                 // leave the loop with Value
	VerdictAbort                // leave the loop with Err
)

// Verdict is the evaluator's answer to one Input.
type Verdict struct {
	Kind  VerdictKind
	Value any
	Err   error
}

// Continue keeps the loop running.
func Continue() Verdict { return Verdict{Kind: VerdictContinue} }

// Stop ends the session deliberately with v.
func Stop(v any) Verdict { return Verdict{Kind: VerdictStop, Value: v} }

// Abort ends the session with err, which Start returns unchanged.
func Abort(err error) Verdict { return Verdict{Kind: VerdictAbort, Err: err} }

func (v Verdict) String() string {
	switch v.Kind {
	case VerdictContinue:
		return "continue"
	case VerdictStop:
		return "stop"
	case VerdictAbort:
		return "abort"
	default:
		return fmt.Sprintf("verdict(%d)", int(v.Kind))
	}
}

// Evaluator is the language side of the loop. All methods are called from
// the goroutine running Start.
type Evaluator interface {
	// CurrentPrompt is the prompt for the next read, without indentation.
	CurrentPrompt() string
	Eval(ctx context.Context, in Input) Verdict
	ResetBuffer()
	IsBufferEmpty() bool
	Completion(partial string) []string
	ExecHook(ctx context.Context, name string, out io.Writer, s *Session) error
}

// GrammarProvider is implemented by evaluators that know their block syntax.
type GrammarProvider interface {
	Grammar() indent.Grammar
}
