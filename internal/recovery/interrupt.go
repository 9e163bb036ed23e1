package recovery

import (
	"context"
	"errors"

	"github.com/nextlevelbuilder/gorepl/internal/bus"
	"github.com/nextlevelbuilder/gorepl/internal/linesource"
)

type interruptPolicy struct {
	sig Signals
}

// Interrupt converts a user cancel, reported either by the adapter or by an
// interrupt signal delivered during the blocking read, into
// OutcomeInterrupted.
func Interrupt(sig Signals) Policy {
	return &interruptPolicy{sig: sig}
}

func (p *interruptPolicy) Name() string { return "interrupt" }

// Attach cancels the attempt context with cause ErrInterrupted when a signal
// arrives while the read is blocked.
func (p *interruptPolicy) Attach(ctx context.Context) (context.Context, func()) {
	return WithInterrupt(ctx, p.sig)
}

// WithInterrupt returns a context cancelled with cause ErrInterrupted on the
// next signal from sig. release must be called; a nil sig leaves ctx as is.
func WithInterrupt(ctx context.Context, sig Signals) (context.Context, func()) {
	if sig == nil {
		return ctx, func() {}
	}
	ch, unsubscribe := sig.Subscribe()
	ictx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-ch:
			cancel(linesource.ErrInterrupted)
		case <-ictx.Done():
		}
	}()
	return ictx, func() {
		cancel(nil)
		<-done
		unsubscribe()
	}
}

// Interrupted reports whether ctx was cancelled by WithInterrupt.
func Interrupted(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), linesource.ErrInterrupted)
}

func (p *interruptPolicy) Begin() Handler {
	return func(env *Env, a Attempt) Decision {
		if !errors.Is(a.Err, linesource.ErrInterrupted) && !errors.Is(a.Cause, linesource.ErrInterrupted) {
			return pass()
		}
		env.publish(bus.EventInterrupted, a, nil)
		return final(OutcomeInterrupted)
	}
}
