package resilience

import (
	"context"
	"time"
)

// Retry defaults.
const (
	DefaultRetries  = 3
	DefaultDelay    = time.Second
	DefaultMaxDelay = 4 * time.Second
)

// RetryPolicy configures FetchWithRetry. The zero value performs a single
// attempt with no retries.
type RetryPolicy struct {
	// Retries is the number of retries after the first attempt.
	Retries int

	// Delay is the wait before the next retry. It doubles after every
	// retry up to MaxDelay.
	Delay time.Duration

	// MaxDelay caps every wait. Zero means no cap.
	MaxDelay time.Duration

	// RetryIf decides whether an error is worth retrying.
	// Default: every non-nil error.
	RetryIf func(err error) bool

	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryPolicy returns 3 retries starting at 1s, capped at 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Retries:  DefaultRetries,
		Delay:    DefaultDelay,
		MaxDelay: DefaultMaxDelay,
	}
}

// wait returns the delay before the next retry.
func (p RetryPolicy) wait() time.Duration {
	d := p.Delay
	if d < 0 {
		d = 0
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Next returns the policy for the following attempt: one fewer retry and a
// doubled delay, capped at MaxDelay.
func (p RetryPolicy) Next() RetryPolicy {
	next := p
	next.Retries = p.Retries - 1
	next.Delay = p.wait() * 2
	if next.MaxDelay > 0 && next.Delay > next.MaxDelay {
		next.Delay = next.MaxDelay
	}
	return next
}

// Schedule returns the sequence of waits a fully failing run would observe.
func (p RetryPolicy) Schedule() []time.Duration {
	out := make([]time.Duration, 0, max(p.Retries, 0))
	for cur := p; cur.Retries > 0; cur = cur.Next() {
		out = append(out, cur.wait())
	}
	return out
}

// FetchWithRetry runs op until it succeeds or the policy runs out of
// retries. Attempts are strictly sequential and number at most
// Retries+1. The last error is returned unchanged. Cancelling ctx during a
// wait returns ctx.Err().
//
// op must be idempotent; nothing deduplicates side effects.
func FetchWithRetry[T any](ctx context.Context, policy RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	retryIf := policy.RetryIf
	if retryIf == nil {
		retryIf = func(err error) bool { return err != nil }
	}

	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if policy.Retries <= 0 || !retryIf(err) {
			return v, err
		}

		delay := policy.wait()
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err, delay)
		}

		if err := sleep(ctx, delay); err != nil {
			var zero T
			return zero, err
		}
		policy = policy.Next()
	}
}

// DoWithRetry is FetchWithRetry for operations without a result.
func DoWithRetry(ctx context.Context, policy RetryPolicy, op func(context.Context) error) error {
	_, err := FetchWithRetry(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
