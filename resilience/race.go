package resilience

import (
	"context"
	"sync/atomic"
	"time"
)

// Outcome is the settled result of a Race.
type Outcome[T any] struct {
	Value T
	Err   error

	// TimedOut is true when the timer (or ctx) settled the race first. Err
	// is then ErrTimeout or the context error.
	TimedOut bool
}

// Race runs op against a timer and returns whichever settles first.
//
// op runs on a context detached from ctx's cancellation, so losing the race
// does not stop it. When op settles after the race was decided its outcome
// is passed to onLate (which may be nil) and is otherwise discarded. Exactly
// one of op or the timer decides the result.
//
// A timeout <= 0 disables the timer; ctx cancellation still settles the
// race.
func Race[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error), onLate func(Outcome[T])) Outcome[T] {
	var settled atomic.Bool
	done := make(chan Outcome[T], 1)

	go func() {
		v, err := op(context.WithoutCancel(ctx))
		out := Outcome[T]{Value: v, Err: err}
		if settled.CompareAndSwap(false, true) {
			done <- out
			return
		}
		if onLate != nil {
			onLate(out)
		}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	var lost Outcome[T]
	select {
	case out := <-done:
		return out
	case <-expired:
		lost = Outcome[T]{Err: ErrTimeout, TimedOut: true}
	case <-ctx.Done():
		lost = Outcome[T]{Err: ctx.Err(), TimedOut: true}
	}

	if settled.CompareAndSwap(false, true) {
		return lost
	}
	// op claimed the race between the timer firing and this point.
	return <-done
}
