package health

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonwraymond/vendora/backend"
	"github.com/jonwraymond/vendora/resilience"
	"github.com/jonwraymond/vendora/store"
)

// probeKey is written and removed by StoreCheck.
const probeKey = "vendora_health_probe"

// Prober is the backend call used by BackendCheck.
type Prober interface {
	Health(ctx context.Context) error
}

// Pinger is implemented by stores with a live connection (SQLite, Redis).
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendCheck reports the auth service health endpoint. An open circuit
// is degraded rather than unhealthy: reads still fall back to the cache.
func BackendCheck(p Prober) Checker {
	return NewCheckerFunc("backend", func(ctx context.Context) Result {
		err := p.Health(ctx)
		switch {
		case err == nil:
			return Healthy("backend reachable")
		case errors.Is(err, resilience.ErrCircuitOpen):
			return Result{Status: StatusDegraded, Message: "backend circuit open", Err: err}
		case backend.StatusOf(err) != 0:
			return Unhealthy(fmt.Sprintf("backend answered %d", backend.StatusOf(err)), err).
				WithDetails(map[string]any{"status": backend.StatusOf(err)})
		default:
			return Unhealthy("backend unreachable", err)
		}
	})
}

// StoreCheck writes, reads back and removes a probe key.
func StoreCheck(name string, st store.Store) Checker {
	return NewCheckerFunc(name, func(ctx context.Context) Result {
		if p, ok := st.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return Unhealthy("store ping failed", err)
			}
		}

		want := strconv.FormatInt(time.Now().UnixNano(), 10)
		if err := st.Set(ctx, probeKey, want); err != nil {
			return Unhealthy("store write failed", err)
		}
		defer func() { _ = st.Remove(context.WithoutCancel(ctx), probeKey) }()

		got, ok, err := st.Get(ctx, probeKey)
		switch {
		case err != nil:
			return Unhealthy("store read failed", err)
		case !ok || got != want:
			return Unhealthy("store lost a write", nil)
		}
		return Healthy("store read/write ok")
	})
}

// CircuitCheck reports a circuit breaker's state: closed is healthy,
// half-open degraded and open unhealthy.
func CircuitCheck(name string, cb *resilience.CircuitBreaker) Checker {
	return NewCheckerFunc(name, func(context.Context) Result {
		stats := cb.Stats()
		details := map[string]any{
			"state":    stats.State.String(),
			"failures": stats.Failures,
			"rejected": stats.Rejected,
		}
		if !stats.LastFailure.IsZero() {
			details["last_failure"] = stats.LastFailure.UTC().Format(time.RFC3339)
		}

		switch stats.State {
		case resilience.StateClosed:
			return Healthy("circuit closed").WithDetails(details)
		case resilience.StateHalfOpen:
			return Degraded("circuit probing").WithDetails(details)
		default:
			return Unhealthy("circuit open", resilience.ErrCircuitOpen).WithDetails(details)
		}
	})
}
