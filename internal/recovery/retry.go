package recovery

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/lipgloss"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/gorepl/internal/bus"
)

// RetryConfig controls the bounded-retry layer.
type RetryConfig struct {
	Kinds  Kinds         // allow-list of retryable error kinds
	Budget int           // failures per read call before giving up (default 5)
	Pacing time.Duration // minimum spacing between retries, 0 = immediate

	// Remedy is appended to the fatal diagnostic; it should tell the user how
	// to reconfigure input and output.
	Remedy string
}

// DefaultRetryConfig returns the default allow-list and budget.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Kinds:  DefaultKinds,
		Budget: DefaultRetryBudget,
	}
}

type boundedRetryPolicy struct {
	cfg RetryConfig
}

// BoundedRetry reports and retries allow-listed faults until the budget runs
// out, then prints a fatal diagnostic and ends input.
func BoundedRetry(cfg RetryConfig) Policy {
	if cfg.Budget <= 0 {
		cfg.Budget = DefaultRetryBudget
	}
	return &boundedRetryPolicy{cfg: cfg}
}

func (p *boundedRetryPolicy) Name() string { return "bounded_retry" }

func (p *boundedRetryPolicy) Begin() Handler {
	budget := NewRetryBudget(p.cfg.Budget)
	var pacer *rate.Limiter
	if p.cfg.Pacing > 0 {
		pacer = rate.NewLimiter(rate.Every(p.cfg.Pacing), 1)
		pacer.Allow() // the first retry waits a full interval
	}

	return func(env *Env, a Attempt) Decision {
		kind, ok := p.cfg.Kinds.Match(a.Err)
		if !ok {
			return pass()
		}

		reportFault(env.Out, a.Err)
		more := budget.Spend()
		env.publish(bus.EventRetry, a, map[string]any{"kind": kind, "attempt": budget.Used(), "budget": budget.Limit()})

		if more {
			if pacer != nil {
				return Decision{Action: Retry, Wait: pacer.Wait}
			}
			return retry()
		}

		slog.Info("input source failed repeatedly", "source", a.Source, "attempts", budget.Used(), "error", a.Err)
		writeFatal(env.Out, a, budget.Used(), p.cfg.Remedy)
		env.publish(bus.EventExhausted, a, map[string]any{"reason": "retry_budget"})
		return final(OutcomeNoMoreInput)
	}
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// reportFault prints the message and, when the error carries one, its trace.
func reportFault(w io.Writer, err error) {
	fmt.Fprintln(w, err.Error())
	var st stackTracer
	if errors.As(err, &st) {
		fmt.Fprintf(w, "%+v\n", st.StackTrace())
		return
	}
	for u := errors.Unwrap(err); u != nil; u = errors.Unwrap(u) {
		fmt.Fprintf(w, "\tcaused by: %v\n", u)
	}
}

func writeFatal(w io.Writer, a Attempt, attempts int, remedy string) {
	r := lipgloss.NewRenderer(w)
	head := r.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	fmt.Fprintln(w, head.Render(fmt.Sprintf("fatal: input source %q failed %d times in a row, giving up", a.Source, attempts)))
	fmt.Fprintf(w, "  last error: %v\n", a.Err)
	if remedy != "" {
		fmt.Fprintln(w, remedy)
	}
}

// DefaultRemedy is the reconfiguration hint for the CLI.
func DefaultRemedy(configPath string) string {
	return fmt.Sprintf(`  The input device may be gone or misconfigured. To recover:
    - pick another input adapter:  --input stdio | liner | readline
    - or set input.adapter in %s
    - if output is redirected, set output.interactive to "never" and output.stream to "stdout" or "stderr"`, configPath)
}
