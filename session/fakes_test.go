package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/vendora/backend"
)

type fakeAuth struct {
	getSession func(ctx context.Context) (*backend.Session, error)
	setSession func(ctx context.Context, access, refresh string) (*backend.Session, error)
	signOutErr error
	adoptErr   error
	updateUser func(ctx context.Context, attrs backend.UserAttributes) (*backend.User, error)

	getCalls     atomic.Int32
	signOutCalls atomic.Int32
	events       chan backend.AuthEvent

	mu      sync.Mutex
	adopted []*backend.Session
}

func (f *fakeAuth) GetSession(ctx context.Context) (*backend.Session, error) {
	f.getCalls.Add(1)
	if f.getSession == nil {
		return nil, nil
	}
	return f.getSession(ctx)
}

func (f *fakeAuth) SetSession(ctx context.Context, access, refresh string) (*backend.Session, error) {
	if f.setSession == nil {
		return &backend.Session{AccessToken: access, RefreshToken: refresh}, nil
	}
	return f.setSession(ctx, access, refresh)
}

func (f *fakeAuth) Adopt(_ context.Context, s *backend.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adopted = append(f.adopted, s)
	return f.adoptErr
}

func (f *fakeAuth) adoptions() []*backend.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*backend.Session(nil), f.adopted...)
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.signOutCalls.Add(1)
	return f.signOutErr
}

func (f *fakeAuth) UpdateUser(ctx context.Context, attrs backend.UserAttributes) (*backend.User, error) {
	if f.updateUser == nil {
		return &backend.User{ID: "u1"}, nil
	}
	return f.updateUser(ctx, attrs)
}

func (f *fakeAuth) Subscribe() (<-chan backend.AuthEvent, func()) {
	if f.events == nil {
		f.events = make(chan backend.AuthEvent)
	}
	return f.events, func() {}
}

type fakeGateway struct {
	passwordGrant func(ctx context.Context, email, password string) (*backend.Session, error)
	signUp        func(ctx context.Context, params backend.SignUpParams) (*backend.SignUpResult, error)

	mu         sync.Mutex
	recovered  string
	redirectTo string
}

func (f *fakeGateway) PasswordGrant(ctx context.Context, email, password string) (*backend.Session, error) {
	return f.passwordGrant(ctx, email, password)
}

func (f *fakeGateway) SignUp(ctx context.Context, params backend.SignUpParams) (*backend.SignUpResult, error) {
	return f.signUp(ctx, params)
}

func (f *fakeGateway) Recover(_ context.Context, email, redirectTo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recovered = email
	f.redirectTo = redirectTo
	return nil
}

type fakeProfiles struct {
	mu        sync.Mutex
	rows      map[string]Profile
	created   []Profile
	fetchErr  error
	createErr error
	block     <-chan struct{}
}

func (f *fakeProfiles) Fetch(_ context.Context, id string) (*Profile, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	p, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeProfiles) Create(_ context.Context, p Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, p)
	return nil
}

// stall blocks until the test ends.
func stall(t *testing.T) <-chan struct{} {
	t.Helper()
	ch := make(chan struct{})
	t.Cleanup(func() { close(ch) })
	return ch
}

func rawSession(id string) *backend.Session {
	return &backend.Session{
		AccessToken:  "access-" + id,
		RefreshToken: "refresh-" + id,
		ExpiresIn:    3600,
		User: &backend.User{
			ID:           id,
			Email:        id + "@example.com",
			UserMetadata: map[string]any{"full_name": "Meta Name", "role": RoleCustomer},
		},
	}
}

func newTestProvider(t *testing.T, cfg Config) *Provider {
	t.Helper()
	if cfg.Auth == nil {
		cfg.Auth = &fakeAuth{}
	}
	if cfg.Gateway == nil {
		cfg.Gateway = &fakeGateway{}
	}
	if cfg.Profiles == nil {
		cfg.Profiles = &fakeProfiles{}
	}
	if cfg.BootstrapTimeout == 0 {
		cfg.BootstrapTimeout = 50 * time.Millisecond
	}
	if cfg.LoginTimeout == 0 {
		cfg.LoginTimeout = 50 * time.Millisecond
	}
	p, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	return p
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
