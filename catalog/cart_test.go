package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/jonwraymond/vendora/store"
)

func TestCart(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	c := NewCart(st, nil)

	phone := Product{ID: "p1", Title: "Phone", Price: 450000}
	cleaning := Product{ID: "p2", Title: "Cleaning", Price: 15000}

	if err := c.Add(ctx, phone, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(ctx, cleaning, 2); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(ctx, phone, 1); err != nil {
		t.Fatal(err)
	}

	lines, _ := c.Lines(ctx)
	if len(lines) != 2 || lines[0].Quantity != 2 {
		t.Fatalf("lines = %+v, want phone x2 and cleaning x2", lines)
	}
	if total, _ := c.Total(ctx); total != 930000 {
		t.Errorf("Total() = %v, want 930000", total)
	}
	if n, _ := c.Count(ctx); n != 4 {
		t.Errorf("Count() = %d, want 4", n)
	}

	// A new cart over the same store sees the persisted lines.
	reloaded := NewCart(st, nil)
	if n, _ := reloaded.Count(ctx); n != 4 {
		t.Errorf("reloaded Count() = %d, want 4", n)
	}

	if err := c.UpdateQuantity(ctx, "p2", 0); err != nil {
		t.Fatal(err)
	}
	if lines, _ := c.Lines(ctx); len(lines) != 1 {
		t.Errorf("UpdateQuantity(0) left %d lines", len(lines))
	}
	if err := c.UpdateQuantity(ctx, "p2", 3); !errors.Is(err, ErrNotInCart) {
		t.Errorf("UpdateQuantity(absent) error = %v, want %v", err, ErrNotInCart)
	}

	if err := c.Remove(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if err := c.Remove(ctx, "p1"); err != nil {
		t.Errorf("second Remove() error = %v", err)
	}
	if n, _ := c.Count(ctx); n != 0 {
		t.Errorf("Count() after removals = %d", n)
	}
}

func TestCart_AddValidation(t *testing.T) {
	c := NewCart(store.NewMemoryStore(), nil)
	ctx := context.Background()

	if err := c.Add(ctx, Product{}, 1); !errors.Is(err, ErrMissingID) {
		t.Errorf("Add(no id) error = %v", err)
	}
	if err := c.Add(ctx, Product{ID: "p"}, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("Add(qty 0) error = %v", err)
	}
}

func TestCart_Clear(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	c := NewCart(st, nil)
	_ = c.Add(ctx, Product{ID: "p", Price: 10}, 3)

	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if total, _ := c.Total(ctx); total != 0 {
		t.Errorf("Total() = %v after Clear", total)
	}
	if raw, _, _ := st.Get(ctx, CartKey); raw != "null" {
		t.Errorf("stored cart = %q, want null", raw)
	}
}

func TestCart_CorruptStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	_ = st.Set(ctx, CartKey, "{broken")

	c := NewCart(st, nil)
	if n, err := c.Count(ctx); err != nil || n != 0 {
		t.Errorf("Count() = %d, %v; want empty cart", n, err)
	}
}
