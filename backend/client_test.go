package backend

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/jonwraymond/vendora/resilience"
)

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{name: "missing url", cfg: Config{AnonKey: "k"}, want: ErrMissingURL},
		{name: "missing key", cfg: Config{URL: "https://x.supabase.co"}, want: ErrMissingAnonKey},
		{name: "bad scheme", cfg: Config{URL: "ftp://x", AnonKey: "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			if err == nil {
				t.Fatal("NewClient() error = nil")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("NewClient() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClient_RequestHeaders(t *testing.T) {
	var got http.Header
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))

	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	if got.Get("apikey") != testAnonKey {
		t.Errorf("apikey = %q, want %q", got.Get("apikey"), testAnonKey)
	}
	if got.Get("Authorization") != "Bearer "+testAnonKey {
		t.Errorf("Authorization = %q, want anon bearer", got.Get("Authorization"))
	}
	if _, err := uuid.Parse(got.Get("X-Request-Id")); err != nil {
		t.Errorf("X-Request-Id = %q is not a uuid", got.Get("X-Request-Id"))
	}
	if got.Get("X-Client-Info") != "vendora-go" {
		t.Errorf("X-Client-Info = %q", got.Get("X-Client-Info"))
	}
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	calls := 0
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		writeJSON(w, http.StatusBadGateway, map[string]string{"message": "upstream down"})
	})

	c := newTestClient(t, h)
	c.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures: 2,
		IsFailure:   IsServerFailure,
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := c.Health(ctx); StatusOf(err) != http.StatusBadGateway {
			t.Fatalf("Health() error = %v, want 502", err)
		}
	}

	if err := c.Health(ctx); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("Health() error = %v, want %v", err, resilience.ErrCircuitOpen)
	}
	if calls != 2 {
		t.Errorf("server saw %d calls, want 2", calls)
	}
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "bad jwt"})
	}))
	c.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures: 1,
		IsFailure:   IsServerFailure,
	})

	_ = c.Health(context.Background())
	if c.breaker.State() != resilience.StateClosed {
		t.Errorf("breaker state = %v, want closed", c.breaker.State())
	}
}
