package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/vendora/observe"
	"github.com/jonwraymond/vendora/store"
)

const (
	// DefaultStorageKey is the store key holding the persisted session.
	DefaultStorageKey = "vendora-auth-token"

	// DefaultRefreshLeeway refreshes tokens this long before they expire.
	DefaultRefreshLeeway = 10 * time.Second

	eventBuffer = 16
)

// AuthConfig configures an Auth.
type AuthConfig struct {
	StorageKey    string
	RefreshLeeway time.Duration
	Logger        observe.Logger
}

// Auth manages the signed-in session: it restores it from the store,
// refreshes it, and publishes changes to subscribers.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Events: delivered in order per subscriber on buffered channels; a
//     subscriber that falls behind misses events rather than blocking
//     publishers.
//   - Ownership: returned *Session values are shared and must not be
//     modified.
type Auth struct {
	client *Client
	store  store.Store
	key    string
	leeway time.Duration
	logger observe.Logger

	mu      sync.Mutex
	current *Session
	loaded  bool

	subsMu sync.Mutex
	subs   map[int]chan AuthEvent
	nextID int

	refreshes singleflight.Group
}

// NewAuth creates a session manager and makes its access token the bearer
// for client's table requests.
func NewAuth(client *Client, st store.Store, cfg AuthConfig) *Auth {
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultStorageKey
	}
	if cfg.RefreshLeeway <= 0 {
		cfg.RefreshLeeway = DefaultRefreshLeeway
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	a := &Auth{
		client: client,
		store:  st,
		key:    cfg.StorageKey,
		leeway: cfg.RefreshLeeway,
		logger: cfg.Logger.With(observe.Field{Key: "component", Value: "auth"}),
		subs:   make(map[int]chan AuthEvent),
	}
	client.setTokenSource(a)
	return a
}

// AccessToken implements TokenSource with the in-memory session.
func (a *Auth) AccessToken() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil || a.current.ExpiresWithin(a.client.now(), 0) {
		return "", false
	}
	return a.current.AccessToken, true
}

// Current returns the in-memory session without touching the store.
func (a *Auth) Current() *Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// GetSession returns the active session, restoring it from the store on
// first use and refreshing it when it is about to expire. It returns
// (nil, nil) when nobody is signed in. The first call publishes
// EventInitialSession.
func (a *Auth) GetSession(ctx context.Context) (*Session, error) {
	s, first, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	if s != nil && s.ExpiresWithin(a.client.now(), a.leeway) {
		s, err = a.refreshSession(ctx, s)
		if err != nil {
			if first {
				a.emit(ctx, AuthEvent{Type: EventInitialSession})
			}
			return nil, err
		}
	}

	if first {
		a.emit(ctx, AuthEvent{Type: EventInitialSession, Session: s})
	}
	return s, nil
}

// SetSession installs tokens obtained elsewhere. The access token is
// validated against the backend (or refreshed when already expired) and
// EventSignedIn is published.
func (a *Auth) SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	s := &Session{AccessToken: accessToken, RefreshToken: refreshToken, TokenType: "bearer"}
	if claims, err := ParseClaims(accessToken); err == nil && claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Unix()
	}

	if s.ExpiresWithin(a.client.now(), 0) {
		refreshed, err := a.refreshSession(ctx, s)
		if err != nil {
			return nil, err
		}
		a.emit(ctx, AuthEvent{Type: EventSignedIn, Session: refreshed})
		return refreshed, nil
	}

	user, err := a.client.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	s.User = user

	if err := a.install(ctx, s); err != nil {
		return nil, err
	}
	a.emit(ctx, AuthEvent{Type: EventSignedIn, Session: s})
	return s, nil
}

// Adopt installs a session taken straight from a token exchange, without
// the GetUser round trip SetSession makes, and publishes EventSignedIn. The
// session becomes current even when persisting it fails.
func (a *Auth) Adopt(ctx context.Context, s *Session) error {
	if s == nil || s.AccessToken == "" {
		return ErrNoSession
	}
	if err := a.install(ctx, s); err != nil {
		return err
	}
	a.emit(ctx, AuthEvent{Type: EventSignedIn, Session: s})
	return nil
}

// SignOut revokes the session, forgets it locally and publishes
// EventSignedOut. The local session is cleared even when revocation fails.
func (a *Auth) SignOut(ctx context.Context) error {
	s, _, loadErr := a.load(ctx)

	a.mu.Lock()
	a.current = nil
	a.loaded = true
	a.mu.Unlock()

	var errs []error
	if loadErr != nil {
		errs = append(errs, loadErr)
	}
	if s != nil {
		if err := a.client.Logout(ctx, s.AccessToken); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.store.Remove(ctx, a.key); err != nil {
		errs = append(errs, fmt.Errorf("backend: remove session: %w", err))
	}

	a.emit(ctx, AuthEvent{Type: EventSignedOut})
	return errors.Join(errs...)
}

// UpdateUser changes the signed-in user's attributes and publishes
// EventUserUpdated.
func (a *Auth) UpdateUser(ctx context.Context, attrs UserAttributes) (*User, error) {
	s, err := a.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoSession
	}

	u, err := a.client.UpdateUser(ctx, s.AccessToken, attrs)
	if err != nil {
		return nil, err
	}

	next := *s
	next.User = u
	if err := a.install(ctx, &next); err != nil {
		a.logger.Warn(ctx, "persist updated session", observe.Err(err))
	}
	a.emit(ctx, AuthEvent{Type: EventUserUpdated, Session: &next})
	return u, nil
}

// Subscribe registers for auth events. The returned function unsubscribes
// and closes the channel; it is safe to call more than once.
func (a *Auth) Subscribe() (<-chan AuthEvent, func()) {
	ch := make(chan AuthEvent, eventBuffer)

	a.subsMu.Lock()
	id := a.nextID
	a.nextID++
	a.subs[id] = ch
	a.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subsMu.Lock()
			delete(a.subs, id)
			close(ch)
			a.subsMu.Unlock()
		})
	}
}

func (a *Auth) emit(ctx context.Context, ev AuthEvent) {
	a.subsMu.Lock()
	defer a.subsMu.Unlock()

	for _, ch := range a.subs {
		select {
		case ch <- ev:
		default:
			a.logger.Warn(ctx, "auth event dropped for slow subscriber",
				observe.Field{Key: "event", Value: string(ev.Type)})
		}
	}
}

// load restores the persisted session once. first is true for the call
// that performed the restore.
func (a *Auth) load(ctx context.Context) (s *Session, first bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.loaded {
		return a.current, false, nil
	}

	raw, ok, err := a.store.Get(ctx, a.key)
	if err != nil {
		return nil, false, fmt.Errorf("backend: read session: %w", err)
	}
	a.loaded = true
	if !ok {
		return nil, true, nil
	}

	var stored Session
	if err := json.Unmarshal([]byte(raw), &stored); err != nil || stored.AccessToken == "" {
		a.logger.Warn(ctx, "discarding unreadable stored session", observe.Err(err))
		_ = a.store.Remove(ctx, a.key)
		return nil, true, nil
	}
	a.current = &stored
	return a.current, true, nil
}

// refreshSession exchanges s's refresh token. Concurrent refreshes of one
// token share a single request. A rejected refresh token signs the user
// out.
func (a *Auth) refreshSession(ctx context.Context, s *Session) (*Session, error) {
	if s.RefreshToken == "" {
		return nil, ErrNoSession
	}

	v, err, _ := a.refreshes.Do(s.RefreshToken, func() (any, error) {
		next, err := a.client.RefreshGrant(ctx, s.RefreshToken)
		if err != nil {
			if status := StatusOf(err); status >= 400 && status < 500 {
				a.forget(ctx)
				a.emit(ctx, AuthEvent{Type: EventSignedOut})
			}
			return nil, err
		}
		if next.User == nil {
			next.User = s.User
		}
		if err := a.install(ctx, next); err != nil {
			a.logger.Warn(ctx, "persist refreshed session", observe.Err(err))
		}
		a.emit(ctx, AuthEvent{Type: EventTokenRefreshed, Session: next})
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// install makes s current and persists it.
func (a *Auth) install(ctx context.Context, s *Session) error {
	a.mu.Lock()
	a.current = s
	a.loaded = true
	a.mu.Unlock()

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("backend: encode session: %w", err)
	}
	if err := a.store.Set(ctx, a.key, string(raw)); err != nil {
		return fmt.Errorf("backend: persist session: %w", err)
	}
	return nil
}

func (a *Auth) forget(ctx context.Context) {
	a.mu.Lock()
	a.current = nil
	a.loaded = true
	a.mu.Unlock()

	if err := a.store.Remove(ctx, a.key); err != nil {
		a.logger.Warn(ctx, "remove session", observe.Err(err))
	}
}

// Ensure Auth implements TokenSource
var _ TokenSource = (*Auth)(nil)
