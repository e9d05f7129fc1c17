package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/vendora/cache"
	"github.com/jonwraymond/vendora/store"
)

func ExampleCache() {
	c, err := cache.New(store.NewMemoryStore())
	if err != nil {
		panic(err)
	}
	ctx := context.Background()

	c.Set(ctx, "greeting", "hello", 5*time.Minute)

	v, ok := cache.GetAs[string](ctx, c, "greeting")
	fmt.Println(v, ok)

	_, ok = c.Get(ctx, "missing")
	fmt.Println(ok)
	// Output:
	// hello true
	// false
}

func ExampleLoader() {
	c, _ := cache.New(store.NewMemoryStore())
	ctx := context.Background()

	l := cache.NewLoader(c, "categories", time.Hour, func(context.Context) ([]string, error) {
		return []string{"trading", "repair"}, nil
	})

	fresh, _ := l.Refresh(ctx)
	cached, ok := l.Snapshot(ctx)
	fmt.Println(fresh, cached, ok)
	// Output:
	// [trading repair] [trading repair] true
}
