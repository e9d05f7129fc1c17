package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/jonwraymond/vendora/cache"
	"github.com/jonwraymond/vendora/observe"
	"github.com/jonwraymond/vendora/resilience"
	"github.com/jonwraymond/vendora/session"
)

// Placeholder credentials used in mock mode.
const (
	PlaceholderURL     = "https://placeholder.supabase.co"
	PlaceholderAnonKey = "placeholder"
)

// Store kinds.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StoreBigCache = "bigcache"
)

// Config is the complete vendora configuration.
type Config struct {
	Backend   BackendConfig   `mapstructure:"backend"`
	Store     StoreConfig     `mapstructure:"store"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Session   SessionConfig   `mapstructure:"session"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Serve     ServeConfig     `mapstructure:"serve"`

	// AdminEmails are granted the admin role regardless of profile.
	AdminEmails []string `mapstructure:"admin_emails" validate:"dive,email"`

	// MockMode is set when no backend credentials were configured.
	MockMode bool `mapstructure:"-"`
}

// BackendConfig locates the hosted backend.
type BackendConfig struct {
	URL              string        `mapstructure:"url" validate:"required,url"`
	AnonKey          string        `mapstructure:"anon_key" validate:"required"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gt=0"`
	ResetRedirectURL string        `mapstructure:"reset_redirect_url" validate:"omitempty,url"`
	Breaker          BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig configures the backend circuit breaker. MaxFailures of
// zero disables it.
type BreakerConfig struct {
	MaxFailures  int           `mapstructure:"max_failures" validate:"gte=0"`
	ResetTimeout time.Duration `mapstructure:"reset_timeout" validate:"gte=0"`
}

// StoreConfig selects the key/value store behind the cache, the session
// and the cart.
type StoreConfig struct {
	Kind          string `mapstructure:"kind" validate:"oneof=memory sqlite redis bigcache"`
	Path          string `mapstructure:"path" validate:"required_if=Kind sqlite"`
	RedisURL      string `mapstructure:"redis_url" validate:"omitempty,url"`
	BigCacheMaxMB int    `mapstructure:"bigcache_max_mb" validate:"gte=0"`
}

// CacheConfig configures the TTL cache.
type CacheConfig struct {
	Prefix     string        `mapstructure:"prefix" validate:"required"`
	DefaultTTL time.Duration `mapstructure:"default_ttl" validate:"gt=0"`
}

// RetryConfig configures network retries.
type RetryConfig struct {
	Retries  int           `mapstructure:"retries" validate:"gte=0,lte=10"`
	Delay    time.Duration `mapstructure:"delay" validate:"gte=0"`
	MaxDelay time.Duration `mapstructure:"max_delay" validate:"gte=0"`
}

// SessionConfig bounds session restore and login.
type SessionConfig struct {
	BootstrapTimeout time.Duration `mapstructure:"bootstrap_timeout" validate:"gt=0"`
	LoginTimeout     time.Duration `mapstructure:"login_timeout" validate:"gt=0"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	Tracing   string  `mapstructure:"tracing" validate:"oneof=otlp stdout none"`
	Metrics   string  `mapstructure:"metrics" validate:"oneof=otlp prometheus stdout none"`
	SamplePct float64 `mapstructure:"sample_pct" validate:"gte=0,lte=1"`
}

// ServeConfig configures `vendora serve`.
type ServeConfig struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

// DefaultStorePath is the SQLite file used when store.path is unset.
func DefaultStorePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "vendora", "store.db")
}

func defaults() map[string]any {
	return map[string]any{
		"backend.url":                   "",
		"backend.anon_key":              "",
		"backend.timeout":               10 * time.Second,
		"backend.reset_redirect_url":    "",
		"backend.breaker.max_failures":  5,
		"backend.breaker.reset_timeout": 30 * time.Second,
		"store.kind":                    StoreSQLite,
		"store.path":                    DefaultStorePath(),
		"store.redis_url":               "",
		"store.bigcache_max_mb":         0,
		"cache.prefix":                  cache.DefaultPrefix,
		"cache.default_ttl":             cache.DefaultTTL,
		"retry.retries":                 resilience.DefaultRetries,
		"retry.delay":                   resilience.DefaultDelay,
		"retry.max_delay":               resilience.DefaultMaxDelay,
		"session.bootstrap_timeout":     session.DefaultBootstrapTimeout,
		"session.login_timeout":         session.DefaultLoginTimeout,
		"log.level":                     "info",
		"telemetry.tracing":             "none",
		"telemetry.metrics":             "none",
		"telemetry.sample_pct":          1.0,
		"serve.addr":                    "127.0.0.1:8080",
		"admin_emails":                  []string{},
	}
}

// RetryPolicy returns the configured retry policy.
func (c *Config) RetryPolicy() resilience.RetryPolicy {
	return resilience.RetryPolicy{
		Retries:  c.Retry.Retries,
		Delay:    c.Retry.Delay,
		MaxDelay: c.Retry.MaxDelay,
	}
}

// CachePolicy returns the configured cache policy.
func (c *Config) CachePolicy() cache.Policy {
	return cache.Policy{DefaultTTL: c.Cache.DefaultTTL}
}

// ObserveConfig returns the telemetry settings for observe.NewObserver.
func (c *Config) ObserveConfig(version string) observe.Config {
	return observe.Config{
		ServiceName: "vendora",
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Telemetry.Tracing != "none",
			Exporter:  c.Telemetry.Tracing,
			SamplePct: c.Telemetry.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Telemetry.Metrics != "none",
			Exporter: c.Telemetry.Metrics,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Log.Level,
		},
	}
}

// AccessPolicy returns the default access policy extended with the
// configured admin emails.
func (c *Config) AccessPolicy() *session.AccessPolicy {
	p := session.DefaultAccessPolicy()
	p.AdminEmails = append(p.AdminEmails, c.AdminEmails...)
	return p
}
