package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/vendora/observe"
)

// FetchFunc loads a fresh value from the source of truth.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Loader serves one cached value with a cache-first read path.
//
// Snapshot returns whatever the cache holds. Refresh fetches a fresh value,
// stores it when non-empty, and falls back to the cached value when the
// fetch fails or returns nothing. Concurrent Refresh calls share one fetch.
type Loader[T any] struct {
	cache   *Cache
	key     string
	ttl     time.Duration
	fetch   FetchFunc[T]
	isEmpty func(T) bool
	group   singleflight.Group
}

// LoaderOption configures a Loader.
type LoaderOption[T any] func(*Loader[T])

// WithEmpty marks values that must not overwrite the cache.
func WithEmpty[T any](isEmpty func(T) bool) LoaderOption[T] {
	return func(l *Loader[T]) { l.isEmpty = isEmpty }
}

// NewLoader creates a Loader caching fetch results under key for ttl.
func NewLoader[T any](c *Cache, key string, ttl time.Duration, fetch FetchFunc[T], opts ...LoaderOption[T]) *Loader[T] {
	l := &Loader[T]{
		cache:   c,
		key:     key,
		ttl:     ttl,
		fetch:   fetch,
		isEmpty: func(T) bool { return false },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key returns the cache key this loader owns.
func (l *Loader[T]) Key() string {
	return l.key
}

// Snapshot returns the cached value, if any.
func (l *Loader[T]) Snapshot(ctx context.Context) (T, bool) {
	return GetAs[T](ctx, l.cache, l.key)
}

// Refresh fetches and caches a fresh value. When the fetch fails and a
// cached value exists, the cached value is returned with a nil error.
func (l *Loader[T]) Refresh(ctx context.Context) (T, error) {
	v, err, _ := l.group.Do(l.key, func() (any, error) {
		return l.refresh(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (l *Loader[T]) refresh(ctx context.Context) (T, error) {
	fresh, err := l.fetch(ctx)
	if err != nil {
		if cached, ok := l.Snapshot(ctx); ok {
			l.cache.logger.Warn(ctx, "refresh failed, serving cached value",
				observe.Field{Key: "key", Value: l.key},
				observe.Err(err),
			)
			return cached, nil
		}
		return fresh, err
	}

	if l.isEmpty(fresh) {
		if cached, ok := l.Snapshot(ctx); ok {
			return cached, nil
		}
		return fresh, nil
	}

	l.cache.Set(ctx, l.key, fresh, l.ttl)
	return fresh, nil
}
