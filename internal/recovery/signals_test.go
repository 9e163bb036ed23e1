package recovery

import (
	"context"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no interrupt delivered")
	}
}

func TestRelay_FansOutOverOneSubscription(t *testing.T) {
	up := NewManualSignals()
	r := NewRelay(up)

	a, unsubA := r.Subscribe()
	b, unsubB := r.Subscribe()
	if n := up.Subscribers(); n != 1 {
		t.Fatalf("upstream subscribers = %d, want 1", n)
	}
	if n := up.Fire(); n != 1 {
		t.Fatalf("Fire reached %d, want the relay", n)
	}
	receive(t, a)
	receive(t, b)
	unsubA()
	unsubB()

	r.Close()
	r.Close()
	if n := up.Subscribers(); n != 0 {
		t.Errorf("upstream subscribers after Close = %d, want 0", n)
	}
}

func TestRelay_InterruptWithoutSubscribersIsDropped(t *testing.T) {
	up := NewManualSignals()
	r := NewRelay(up)
	defer r.Close()

	up.Fire()
	// Let the relay handle the dropped interrupt before subscribing.
	time.Sleep(10 * time.Millisecond)
	ch, unsub := r.Subscribe()
	defer unsub()
	select {
	case <-ch:
		t.Error("interrupt delivered to a later subscriber")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestWithInterrupt(t *testing.T) {
	sig := NewManualSignals()
	ctx, release := WithInterrupt(context.Background(), sig)
	if sig.Fire() != 1 {
		t.Fatal("WithInterrupt did not subscribe")
	}
	receive(t, ctx.Done())
	if !Interrupted(ctx) {
		t.Errorf("cause = %v, want ErrInterrupted", context.Cause(ctx))
	}
	release()
	if n := sig.Subscribers(); n != 0 {
		t.Errorf("subscribers after release = %d, want 0", n)
	}
}

func TestWithInterrupt_ReleaseIsNotAnInterrupt(t *testing.T) {
	ctx, release := WithInterrupt(context.Background(), NewManualSignals())
	release()
	if ctx.Err() == nil || Interrupted(ctx) {
		t.Errorf("after release err = %v, cause = %v", ctx.Err(), context.Cause(ctx))
	}
}

func TestWithInterrupt_NilSignals(t *testing.T) {
	parent := context.Background()
	ctx, release := WithInterrupt(parent, nil)
	defer release()
	if ctx != parent {
		t.Error("nil signals should leave the context unchanged")
	}
}
