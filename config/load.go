package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VENDORA"

// Options controls Load.
type Options struct {
	// Path is an explicit config file. Empty searches ./vendora.yaml and
	// $HOME/.vendora/vendora.yaml; a missing file is not an error then.
	Path string

	// Resolver expands secretrefs. Default: DefaultResolver()
	Resolver *Resolver

	// Viper is the instance to read from, so callers can bind flags.
	// Default: a fresh viper.New()
	Viper *viper.Viper
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads, resolves and validates the configuration.
func Load(ctx context.Context, opts Options) (*Config, error) {
	v := opts.Viper
	if v == nil {
		v = viper.New()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = DefaultResolver()
	}

	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("backend.url", EnvPrefix+"_BACKEND_URL", "SUPABASE_URL"); err != nil {
		return nil, fmt.Errorf("config: bind env: %w", err)
	}
	if err := v.BindEnv("backend.anon_key", EnvPrefix+"_BACKEND_ANON_KEY", "SUPABASE_ANON_KEY"); err != nil {
		return nil, fmt.Errorf("config: bind env: %w", err)
	}

	if opts.Path != "" {
		v.SetConfigFile(opts.Path)
	} else {
		v.SetConfigName("vendora")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.vendora")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.Path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.resolveSecrets(ctx, resolver); err != nil {
		return nil, err
	}
	cfg.applyMockMode()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveSecrets expands the fields that may carry credentials.
func (c *Config) resolveSecrets(ctx context.Context, r *Resolver) error {
	fields := []struct {
		name string
		val  *string
	}{
		{"backend.url", &c.Backend.URL},
		{"backend.anon_key", &c.Backend.AnonKey},
		{"backend.reset_redirect_url", &c.Backend.ResetRedirectURL},
		{"store.path", &c.Store.Path},
		{"store.redis_url", &c.Store.RedisURL},
	}
	for _, f := range fields {
		out, err := r.Resolve(ctx, *f.val)
		if err != nil {
			return fmt.Errorf("config: resolve %s: %w", f.name, err)
		}
		*f.val = out
	}
	return nil
}

func (c *Config) applyMockMode() {
	if c.Backend.URL != "" && c.Backend.AnonKey != "" {
		return
	}
	c.Backend.URL = PlaceholderURL
	c.Backend.AnonKey = PlaceholderAnonKey
	c.MockMode = true
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Store.Kind == StoreRedis && c.Store.RedisURL == "" {
		return fmt.Errorf("%w: store.redis_url is required for the redis store", ErrInvalidConfig)
	}
	if c.Retry.MaxDelay > 0 && c.Retry.Delay > c.Retry.MaxDelay {
		return fmt.Errorf("%w: retry.delay exceeds retry.max_delay", ErrInvalidConfig)
	}
	return nil
}
