package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/vendora/backend"
	"github.com/jonwraymond/vendora/cache"
	"github.com/jonwraymond/vendora/observe"
	"github.com/jonwraymond/vendora/resilience"
)

const (
	// DefaultBootstrapTimeout bounds the startup session restore.
	DefaultBootstrapTimeout = time.Second

	// DefaultLoginTimeout bounds session installation after a successful
	// token exchange.
	DefaultLoginTimeout = 2 * time.Second
)

// AuthBackend is the session manager the provider drives. *backend.Auth
// implements it.
type AuthBackend interface {
	GetSession(ctx context.Context) (*backend.Session, error)
	SetSession(ctx context.Context, accessToken, refreshToken string) (*backend.Session, error)
	Adopt(ctx context.Context, s *backend.Session) error
	SignOut(ctx context.Context) error
	UpdateUser(ctx context.Context, attrs backend.UserAttributes) (*backend.User, error)
	Subscribe() (<-chan backend.AuthEvent, func())
}

// Gateway performs the raw auth calls that bypass the session manager.
// *backend.Client implements it.
type Gateway interface {
	PasswordGrant(ctx context.Context, email, password string) (*backend.Session, error)
	SignUp(ctx context.Context, params backend.SignUpParams) (*backend.SignUpResult, error)
	Recover(ctx context.Context, email, redirectTo string) error
}

// ProfileStore reads and creates profile rows.
//
// Contract:
//   - Fetch returns (nil, nil) when the user has no profile row.
type ProfileStore interface {
	Fetch(ctx context.Context, userID string) (*Profile, error)
	Create(ctx context.Context, p Profile) error
}

// Config configures a Provider.
type Config struct {
	Auth     AuthBackend
	Gateway  Gateway
	Profiles ProfileStore

	// Cache, when set, is cleared on logout.
	Cache *cache.Cache

	// BootstrapTimeout. Default: DefaultBootstrapTimeout
	BootstrapTimeout time.Duration

	// LoginTimeout. Default: DefaultLoginTimeout
	LoginTimeout time.Duration

	// ResetRedirectURL is where password reset emails link to.
	ResetRedirectURL string

	Logger observe.Logger
}

// LoginResult is returned by Login.
type LoginResult struct {
	User    *UserProfile
	Session *backend.Session
}

// RegistrationInfo is the profile data collected at sign-up.
type RegistrationInfo struct {
	FullName         string
	Role             string
	City             string
	State            string
	CommissionAgreed bool
}

// RegisterResult is returned by Register. User is nil and
// ConfirmationRequired is true when the backend requires email
// confirmation before signing in.
type RegisterResult struct {
	User                 *UserProfile
	ConfirmationRequired bool
}

// Provider is the single writer of a State.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Bounds: Bootstrap returns within BootstrapTimeout and Login within
//     LoginTimeout after the token exchange, however long the backend
//     stalls. Operations that lose a race keep running and their results
//     are discarded.
type Provider struct {
	auth     AuthBackend
	gateway  Gateway
	profiles ProfileStore
	cache    *cache.Cache
	logger   observe.Logger

	bootstrapTimeout time.Duration
	loginTimeout     time.Duration
	resetRedirect    string

	state    *State
	bootOnce sync.Once
	inflight singleflight.Group
}

// NewProvider validates cfg and creates a Provider with a fresh State.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Auth == nil {
		return nil, ErrMissingAuth
	}
	if cfg.Gateway == nil {
		return nil, ErrMissingGateway
	}
	if cfg.Profiles == nil {
		return nil, ErrMissingProfiles
	}
	if cfg.BootstrapTimeout <= 0 {
		cfg.BootstrapTimeout = DefaultBootstrapTimeout
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = DefaultLoginTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	return &Provider{
		auth:             cfg.Auth,
		gateway:          cfg.Gateway,
		profiles:         cfg.Profiles,
		cache:            cfg.Cache,
		logger:           cfg.Logger.With(observe.Field{Key: "component", Value: "session"}),
		bootstrapTimeout: cfg.BootstrapTimeout,
		loginTimeout:     cfg.LoginTimeout,
		resetRedirect:    cfg.ResetRedirectURL,
		state:            NewState(),
	}, nil
}

// State returns the state this provider writes.
func (p *Provider) State() *State {
	return p.state
}

// Bootstrap resolves the stored session, at most once per provider. It
// races the restore against BootstrapTimeout: if the timer wins, the state
// resolves with whatever identity the restore had obtained so far (often
// none). Later calls return the current snapshot.
func (p *Provider) Bootstrap(ctx context.Context) Snapshot {
	p.bootOnce.Do(func() {
		var (
			mu      sync.Mutex
			partial *UserProfile
		)

		out := resilience.Race(ctx, p.bootstrapTimeout, func(ctx context.Context) (*UserProfile, error) {
			s, err := p.auth.GetSession(ctx)
			if err != nil {
				return nil, err
			}
			if s == nil || s.User == nil {
				return nil, nil
			}
			mu.Lock()
			partial = Merge(s.User, nil)
			mu.Unlock()
			return p.enrich(ctx, s.User), nil
		}, func(late resilience.Outcome[*UserProfile]) {
			p.logger.Debug(ctx, "discarding late session restore",
				observe.Field{Key: "signed_in", Value: late.Value != nil},
				observe.Err(late.Err))
		})

		user := out.Value
		switch {
		case out.TimedOut:
			mu.Lock()
			user = partial
			mu.Unlock()
			p.logger.Warn(ctx, "session restore did not finish in time",
				observe.Field{Key: "timeout", Value: p.bootstrapTimeout.String()},
				observe.Field{Key: "signed_in", Value: user != nil})
		case out.Err != nil:
			p.logger.Warn(ctx, "session restore failed", observe.Err(out.Err))
		}
		p.state.resolve(user)
	})
	return p.state.Snapshot()
}

// Watch applies auth changes to the state until ctx is done or the event
// stream closes. Signed-in events re-fetch the profile; a signed-out event
// clears the user.
func (p *Provider) Watch(ctx context.Context) {
	events, unsubscribe := p.auth.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			p.apply(ctx, ev)
		}
	}
}

func (p *Provider) apply(ctx context.Context, ev backend.AuthEvent) {
	p.logger.Debug(ctx, "auth change", observe.Field{Key: "event", Value: string(ev.Type)})

	if ev.Session == nil || ev.Session.User == nil {
		p.state.resolve(nil)
		return
	}
	p.state.resolve(p.enrich(ctx, ev.Session.User))
}

// Login exchanges credentials for tokens and installs them. Installation
// races LoginTimeout; when it loses (or fails) the user is built from the
// raw token response instead. Only a failed exchange is an error, and it
// is the backend's *backend.APIError.
func (p *Provider) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	raw, err := p.gateway.PasswordGrant(ctx, email, password)
	if err != nil {
		p.logger.Warn(ctx, "login failed", observe.Field{Key: "email", Value: email}, observe.Err(err))
		return nil, err
	}
	if raw.User == nil {
		return nil, ErrNoIdentity
	}

	res, err := p.establish(ctx, raw)
	if err != nil {
		return nil, err
	}
	p.logger.Info(ctx, "signed in", observe.Field{Key: "user_id", Value: res.User.ID})
	return res, nil
}

// establish installs raw and resolves the state, bounded by LoginTimeout.
func (p *Provider) establish(ctx context.Context, raw *backend.Session) (*LoginResult, error) {
	out := resilience.Race(ctx, p.loginTimeout, func(ctx context.Context) (*LoginResult, error) {
		s, err := p.auth.SetSession(ctx, raw.AccessToken, raw.RefreshToken)
		if err != nil {
			return nil, err
		}
		identity := s.User
		if identity == nil {
			identity = raw.User
		}
		return &LoginResult{User: p.enrich(ctx, identity), Session: s}, nil
	}, func(late resilience.Outcome[*LoginResult]) {
		p.logger.Debug(ctx, "discarding late session install", observe.Err(late.Err))
	})

	if err := ctx.Err(); err != nil && out.TimedOut {
		return nil, err
	}

	res := out.Value
	if out.Err != nil {
		p.logger.Warn(ctx, "session install did not complete; using token response", observe.Err(out.Err))
		if err := p.auth.Adopt(ctx, raw); err != nil {
			p.logger.Warn(ctx, "adopt token response", observe.Err(err))
		}
		user := Merge(raw.User, nil)
		user.Session = raw
		res = &LoginResult{User: user, Session: raw}
	}
	p.state.resolve(res.User)
	return res, nil
}

// Register signs up a user and creates their profile row. When the backend
// returns a session right away it is installed as in Login.
func (p *Provider) Register(ctx context.Context, email, password string, info RegistrationInfo) (*RegisterResult, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if info.Role == "" {
		info.Role = RoleCustomer
	}
	if !ValidRole(info.Role) || info.Role == RoleAdmin {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, info.Role)
	}

	res, err := p.gateway.SignUp(ctx, backend.SignUpParams{
		Email:    email,
		Password: password,
		Data:     map[string]any{"full_name": info.FullName, "role": info.Role},
	})
	if err != nil {
		return nil, err
	}

	if res.User != nil {
		profile := Profile{
			ID:               res.User.ID,
			FullName:         info.FullName,
			Role:             info.Role,
			City:             info.City,
			State:            info.State,
			CommissionAgreed: info.CommissionAgreed,
		}
		if err := p.profiles.Create(ctx, profile); err != nil {
			return nil, fmt.Errorf("session: create profile: %w", err)
		}
	}

	if res.Session == nil {
		return &RegisterResult{ConfirmationRequired: true}, nil
	}
	if res.Session.User == nil {
		res.Session.User = res.User
	}
	if res.Session.User == nil {
		return nil, ErrNoIdentity
	}
	login, err := p.establish(ctx, res.Session)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{User: login.User}, nil
}

// Logout signs out, clears the state and empties the cache. Backend
// failures are logged; the local sign-out always happens.
func (p *Provider) Logout(ctx context.Context) {
	if err := p.auth.SignOut(ctx); err != nil {
		p.logger.Warn(ctx, "sign out failed", observe.Err(err))
	}
	p.state.resolve(nil)
	if p.cache != nil {
		n := p.cache.ClearAll(ctx)
		p.logger.Debug(ctx, "cache cleared", observe.Field{Key: "entries", Value: n})
	}
}

// ResetPassword emails a reset link pointing at ResetRedirectURL.
func (p *Provider) ResetPassword(ctx context.Context, email string) error {
	if email == "" {
		return ErrMissingCredentials
	}
	return p.gateway.Recover(ctx, email, p.resetRedirect)
}

// UpdatePassword changes the signed-in user's password.
func (p *Provider) UpdatePassword(ctx context.Context, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: need at least %d characters", ErrPasswordTooShort, MinPasswordLength)
	}
	_, err := p.auth.UpdateUser(ctx, backend.UserAttributes{Password: newPassword})
	if errors.Is(err, backend.ErrNoSession) {
		return ErrNotSignedIn
	}
	return err
}

// enrich merges identity with its profile. Profile failures degrade to the
// bare identity. Concurrent lookups for one user share a request.
func (p *Provider) enrich(ctx context.Context, identity *backend.User) *UserProfile {
	v, err, _ := p.inflight.Do(identity.ID, func() (any, error) {
		return p.profiles.Fetch(ctx, identity.ID)
	})
	if err != nil {
		p.logger.Warn(ctx, "profile fetch failed; using identity only",
			observe.Field{Key: "user_id", Value: identity.ID}, observe.Err(err))
		return Merge(identity, nil)
	}
	profile, _ := v.(*Profile)
	return Merge(identity, profile)
}
