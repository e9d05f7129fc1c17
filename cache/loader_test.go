package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/vendora/store"
)

func TestLoader_RefreshStoresFreshValue(t *testing.T) {
	c, _ := newTestCache(t, store.NewMemoryStore())
	ctx := context.Background()

	l := NewLoader(c, "products", 30*time.Minute, func(context.Context) ([]string, error) {
		return []string{"p1"}, nil
	})

	if _, ok := l.Snapshot(ctx); ok {
		t.Fatal("Snapshot() ok = true before any refresh")
	}

	got, err := l.Refresh(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("Refresh() = (%v, %v)", got, err)
	}

	snap, ok := l.Snapshot(ctx)
	if !ok || snap[0] != "p1" {
		t.Errorf("Snapshot() = (%v, %v), want ([p1], true)", snap, ok)
	}
}

func TestLoader_FailureKeepsStaleValue(t *testing.T) {
	c, _ := newTestCache(t, store.NewMemoryStore())
	ctx := context.Background()
	c.Set(ctx, "products", []string{"cached"}, time.Hour)

	l := NewLoader(c, "products", time.Hour, func(context.Context) ([]string, error) {
		return nil, errors.New("network down")
	})

	got, err := l.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() error = %v, want nil with cached fallback", err)
	}
	if len(got) != 1 || got[0] != "cached" {
		t.Errorf("Refresh() = %v, want [cached]", got)
	}
}

func TestLoader_FailureWithoutCache(t *testing.T) {
	c, _ := newTestCache(t, store.NewMemoryStore())
	want := errors.New("network down")

	l := NewLoader(c, "products", time.Hour, func(context.Context) ([]string, error) {
		return nil, want
	})

	if _, err := l.Refresh(context.Background()); !errors.Is(err, want) {
		t.Errorf("Refresh() error = %v, want %v", err, want)
	}
}

func TestLoader_EmptyResultDoesNotOverwrite(t *testing.T) {
	c, _ := newTestCache(t, store.NewMemoryStore())
	ctx := context.Background()
	c.Set(ctx, "products", []string{"cached"}, time.Hour)

	l := NewLoader(c, "products", time.Hour,
		func(context.Context) ([]string, error) { return []string{}, nil },
		WithEmpty(func(v []string) bool { return len(v) == 0 }),
	)

	got, err := l.Refresh(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("Refresh() = (%v, %v), want cached value", got, err)
	}
	snap, _ := l.Snapshot(ctx)
	if len(snap) != 1 {
		t.Errorf("empty result overwrote cache: %v", snap)
	}
}

func TestLoader_CoalescesConcurrentRefresh(t *testing.T) {
	c, _ := newTestCache(t, store.NewMemoryStore())

	var calls atomic.Int32
	release := make(chan struct{})
	l := NewLoader(c, "products", time.Hour, func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := l.Refresh(context.Background()); err != nil || v != 7 {
				t.Errorf("Refresh() = (%v, %v), want (7, nil)", v, err)
			}
		}()
	}

	// Let every goroutine reach the singleflight group before releasing.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("fetch called %d times, want 1", got)
	}
}
