package recovery

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nextlevelbuilder/gorepl/internal/bus"
)

type endOfInputPolicy struct{}

// EndOfInput handles an exhausted stream. The first io.EOF of a read call
// swaps the active adapter to the process default and retries once; the
// next one ends input for good.
func EndOfInput() Policy { return endOfInputPolicy{} }

func (endOfInputPolicy) Name() string { return "end_of_input" }

func (endOfInputPolicy) Begin() Handler {
	fellBack := false
	return func(env *Env, a Attempt) Decision {
		if !errors.Is(a.Err, io.EOF) {
			return pass()
		}
		if !fellBack {
			fellBack = true
			to := ""
			if env.SwapToDefault != nil {
				to = env.SwapToDefault()
			}
			slog.Debug("input exhausted, falling back to default source", "from", a.Source, "to", to)
			env.publish(bus.EventFallback, a, map[string]any{"to": to})
			return retry()
		}
		if env.Interactive {
			fmt.Fprintln(env.Out)
		}
		env.publish(bus.EventExhausted, a, nil)
		return final(OutcomeNoMoreInput)
	}
}
