package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonwraymond/vendora/backend"
	"github.com/jonwraymond/vendora/cache"
	"github.com/jonwraymond/vendora/catalog"
	"github.com/jonwraymond/vendora/config"
	"github.com/jonwraymond/vendora/observe"
	"github.com/jonwraymond/vendora/resilience"
	"github.com/jonwraymond/vendora/session"
	"github.com/jonwraymond/vendora/store"
)

// app holds the wired components for one CLI invocation.
type app struct {
	cfg      *config.Config
	obs      observe.Observer
	logger   observe.Logger
	registry *prometheus.Registry

	store    store.Store
	cache    *cache.Cache
	breaker  *resilience.CircuitBreaker
	client   *backend.Client
	auth     *backend.Auth
	provider *session.Provider
	catalog  *catalog.Catalog

	closers []io.Closer
}

type appOptions struct {
	// logOutput defaults to stderr.
	logOutput io.Writer
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}

	obsCfg := cfg.ObserveConfig(version)
	obsCfg.Metrics.Registerer = a.registry
	obsCfg.Logging.Output = opts.logOutput
	obs, err := observe.NewObserver(ctx, obsCfg)
	if err != nil {
		return nil, err
	}
	a.obs = obs
	a.logger = obs.Logger()
	if cfg.MockMode {
		a.logger.Warn(ctx, "backend credentials not configured; running in mock mode",
			observe.Field{Key: "url", Value: cfg.Backend.URL})
	}

	if err := a.wire(ctx); err != nil {
		_ = a.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	a.store = st
	if c, ok := st.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	a.cache, err = cache.New(st,
		cache.WithPrefix(cfg.Cache.Prefix),
		cache.WithPolicy(cfg.CachePolicy()),
		cache.WithLogger(a.logger),
		cache.WithMeter(a.obs.Meter()),
	)
	if err != nil {
		return err
	}

	mw, err := observe.MiddlewareFromObserver(a.obs)
	if err != nil {
		return err
	}
	if cfg.Backend.Breaker.MaxFailures > 0 {
		a.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  cfg.Backend.Breaker.MaxFailures,
			ResetTimeout: cfg.Backend.Breaker.ResetTimeout,
			IsFailure:    backend.IsServerFailure,
			OnStateChange: func(from, to resilience.State) {
				a.logger.Warn(context.Background(), "backend circuit changed state",
					observe.Field{Key: "from", Value: from.String()},
					observe.Field{Key: "to", Value: to.String()})
			},
		})
	}
	a.client, err = backend.NewClient(backend.Config{
		URL:        cfg.Backend.URL,
		AnonKey:    cfg.Backend.AnonKey,
		Timeout:    cfg.Backend.Timeout,
		Middleware: mw,
		Breaker:    a.breaker,
	})
	if err != nil {
		return err
	}
	a.auth = backend.NewAuth(a.client, st, backend.AuthConfig{Logger: a.logger})

	retry := cfg.RetryPolicy()
	access := cfg.AccessPolicy()
	a.catalog, err = catalog.New(catalog.Config{
		Client: a.client,
		Cache:  a.cache,
		Store:  st,
		Retry:  &retry,
		Access: access,
		Logger: a.logger,
	})
	if err != nil {
		return err
	}

	a.provider, err = session.NewProvider(session.Config{
		Auth:             a.auth,
		Gateway:          a.client,
		Profiles:         a.catalog.Profiles,
		Cache:            a.cache,
		BootstrapTimeout: cfg.Session.BootstrapTimeout,
		LoginTimeout:     cfg.Session.LoginTimeout,
		ResetRedirectURL: cfg.Backend.ResetRedirectURL,
		Logger:           a.logger,
	})
	return err
}

// userContext restores the session and attaches the signed-in user, if
// any, to ctx.
func (a *app) userContext(ctx context.Context) (context.Context, session.Snapshot) {
	snap := a.provider.Bootstrap(ctx)
	if snap.User != nil {
		ctx = session.WithUser(ctx, snap.User)
	}
	return ctx, snap
}

// Close flushes telemetry and closes the store.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	if a.obs != nil {
		errs = append(errs, a.obs.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Kind {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." && cfg.Path != ":memory:" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("create store directory: %w", err)
			}
		}
		return store.NewSQLiteStore(ctx, store.SQLiteConfig{Path: cfg.Path})
	case config.StoreRedis:
		return store.DialRedis(ctx, store.RedisConfig{URL: cfg.RedisURL})
	case config.StoreBigCache:
		return store.NewBigCacheStore(ctx, store.BigCacheConfig{MaxSizeMB: cfg.BigCacheMaxMB})
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}
}
