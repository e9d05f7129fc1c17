package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
)

// BigCacheConfig configures the BigCache store.
type BigCacheConfig struct {
	// LifeWindow is how long BigCache keeps an entry before it may be evicted.
	// Default: 24 hours
	LifeWindow time.Duration

	// MaxSizeMB caps memory use. Zero means unbounded.
	MaxSizeMB int
}

// BigCacheStore is a bounded in-memory Store. Entries older than LifeWindow
// may be dropped by BigCache independently of the cache layer's TTL.
type BigCacheStore struct {
	cache *bigcache.BigCache
}

// NewBigCacheStore creates a BigCache-backed store.
func NewBigCacheStore(ctx context.Context, cfg BigCacheConfig) (*BigCacheStore, error) {
	if cfg.LifeWindow <= 0 {
		cfg.LifeWindow = 24 * time.Hour
	}

	bcfg := bigcache.DefaultConfig(cfg.LifeWindow)
	bcfg.HardMaxCacheSize = cfg.MaxSizeMB
	bcfg.Verbose = false

	c, err := bigcache.New(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("store: create bigcache: %w", err)
	}
	return &BigCacheStore{cache: c}, nil
}

// Get returns the value stored under key.
func (s *BigCacheStore) Get(_ context.Context, key string) (string, bool, error) {
	data, err := s.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: bigcache get %q: %w", key, err)
	}
	return string(data), true, nil
}

// Set stores value under key.
func (s *BigCacheStore) Set(_ context.Context, key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := s.cache.Set(key, []byte(value)); err != nil {
		return fmt.Errorf("store: bigcache set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Idempotent.
func (s *BigCacheStore) Remove(_ context.Context, key string) error {
	err := s.cache.Delete(key)
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("store: bigcache delete %q: %w", key, err)
	}
	return nil
}

// Keys returns every key that starts with prefix.
func (s *BigCacheStore) Keys(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	it := s.cache.Iterator()
	for it.SetNext() {
		info, err := it.Value()
		if err != nil {
			return nil, fmt.Errorf("store: bigcache iterate: %w", err)
		}
		if strings.HasPrefix(info.Key(), prefix) {
			keys = append(keys, info.Key())
		}
	}
	return keys, nil
}

// Close releases the cache's background resources.
func (s *BigCacheStore) Close() error {
	return s.cache.Close()
}

// Ensure BigCacheStore implements Store
var _ Store = (*BigCacheStore)(nil)
