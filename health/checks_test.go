package health

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonwraymond/vendora/backend"
	"github.com/jonwraymond/vendora/resilience"
	"github.com/jonwraymond/vendora/store"
)

type proberFunc func(context.Context) error

func (f proberFunc) Health(ctx context.Context) error { return f(ctx) }

func TestBackendCheck(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"reachable", nil, StatusHealthy},
		{"circuit open", fmt.Errorf("backend: health: %w", resilience.ErrCircuitOpen), StatusDegraded},
		{"server error", &backend.APIError{Status: 503, Message: "down"}, StatusUnhealthy},
		{"network error", errors.New("dial tcp: connection refused"), StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := BackendCheck(proberFunc(func(context.Context) error { return tt.err }))
			if c.Name() != "backend" {
				t.Errorf("Name() = %q", c.Name())
			}
			r := c.Check(context.Background())
			if r.Status != tt.want {
				t.Errorf("Status = %v, want %v (%s)", r.Status, tt.want, r.Message)
			}
			if tt.err != nil && r.Err == nil {
				t.Error("Err not recorded")
			}
		})
	}
}

type failingStore struct {
	*store.MemoryStore
	setErr  error
	pingErr error
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *failingStore) Ping(context.Context) error { return s.pingErr }

func TestStoreCheck(t *testing.T) {
	ctx := context.Background()

	st := store.NewMemoryStore()
	r := StoreCheck("store", st).Check(ctx)
	if r.Status != StatusHealthy {
		t.Fatalf("Check() = %+v", r)
	}
	if keys, _ := st.Keys(ctx, ""); len(keys) != 0 {
		t.Errorf("probe key left behind: %v", keys)
	}

	broken := &failingStore{MemoryStore: store.NewMemoryStore(), setErr: errors.New("disk full")}
	if r := StoreCheck("store", broken).Check(ctx); r.Status != StatusUnhealthy {
		t.Errorf("write failure = %v, want unhealthy", r.Status)
	}

	offline := &failingStore{MemoryStore: store.NewMemoryStore(), pingErr: errors.New("closed")}
	if r := StoreCheck("store", offline).Check(ctx); r.Status != StatusUnhealthy || r.Message != "store ping failed" {
		t.Errorf("ping failure = %+v", r)
	}
}

func TestCircuitCheck(t *testing.T) {
	now := time.Unix(1000, 0)
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Minute,
		Now:          func() time.Time { return now },
	})
	check := CircuitCheck("circuit", cb)
	ctx := context.Background()

	if r := check.Check(ctx); r.Status != StatusHealthy || r.Details["state"] != "closed" {
		t.Errorf("closed = %+v", r)
	}

	_ = cb.Execute(ctx, func(context.Context) error { return errors.New("502") })
	r := check.Check(ctx)
	if r.Status != StatusUnhealthy || r.Details["state"] != "open" {
		t.Errorf("open = %+v", r)
	}
	if _, ok := r.Details["last_failure"]; !ok {
		t.Error("last_failure missing")
	}

	now = now.Add(2 * time.Minute)
	if r := check.Check(ctx); r.Status != StatusDegraded {
		t.Errorf("after reset timeout = %+v, want degraded", r)
	}
}
