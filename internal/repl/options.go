package repl

import (
	"io"
	"log/slog"
	"os"

	"github.com/nextlevelbuilder/gorepl/internal/bus"
	"github.com/nextlevelbuilder/gorepl/internal/indent"
	"github.com/nextlevelbuilder/gorepl/internal/linesource"
	"github.com/nextlevelbuilder/gorepl/internal/recovery"
	"github.com/nextlevelbuilder/gorepl/internal/terminal"
	"github.com/nextlevelbuilder/gorepl/internal/tracing"
)

// Options is the configuration a session is built with. It is not modified
// after NewSession.
type Options struct {
	// DefaultSource is the process-wide input the end-of-input layer falls
	// back to. It is owned by the caller and never closed by the session.
	DefaultSource linesource.Source

	Output io.Writer
	Probe  terminal.Probe

	Retry recovery.RetryConfig

	AutoIndent        bool
	CorrectOnTerminal bool
	CursorReset       bool // clear a stray partial line before the first prompt
	IndentUnit        string
	Grammar           *indent.Grammar // nil: the evaluator's, else indent.CLike

	Interrupts recovery.Signals
	Events     *bus.Bus
	Tracer     *tracing.Collector
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Output == nil {
		o.Output = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Retry.Kinds == nil {
		o.Retry.Kinds = recovery.DefaultKinds
	}
	if o.Retry.Budget <= 0 {
		o.Retry.Budget = recovery.DefaultRetryBudget
	}
	return o
}

func (o Options) grammar(eval Evaluator) indent.Grammar {
	if o.Grammar != nil {
		return *o.Grammar
	}
	if gp, ok := eval.(GrammarProvider); ok {
		return gp.Grammar()
	}
	return indent.CLike
}
