package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/jonwraymond/vendora/observe"
	"github.com/jonwraymond/vendora/store"
)

// CartKey is the store key of the persisted cart.
const CartKey = "vendora_cart"

// CartLine is one product in the cart.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal is price times quantity.
func (l CartLine) Subtotal() Price {
	return l.Product.Price * Price(l.Quantity)
}

// Cart is the shopping cart, persisted to a store after every change.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - The store is read once, on first use.
type Cart struct {
	store  store.Store
	logger observe.Logger

	mu     sync.Mutex
	lines  []CartLine
	loaded bool
}

// NewCart creates a cart persisted in st.
func NewCart(st store.Store, logger observe.Logger) *Cart {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Cart{store: st, logger: logger}
}

// Lines returns a copy of the cart contents.
func (c *Cart) Lines(ctx context.Context) ([]CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(c.lines), nil
}

// Add puts qty of p in the cart, adding to an existing line.
func (c *Cart) Add(ctx context.Context, p Product, qty int) error {
	if p.ID == "" {
		return ErrMissingID
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return c.mutate(ctx, func(lines []CartLine) ([]CartLine, error) {
		if i := indexOf(lines, p.ID); i >= 0 {
			lines[i].Quantity += qty
			lines[i].Product = p
			return lines, nil
		}
		return append(lines, CartLine{Product: p, Quantity: qty}), nil
	})
}

// Remove drops a product from the cart. Removing an absent product is a
// no-op.
func (c *Cart) Remove(ctx context.Context, productID string) error {
	return c.mutate(ctx, func(lines []CartLine) ([]CartLine, error) {
		if i := indexOf(lines, productID); i >= 0 {
			return slices.Delete(lines, i, i+1), nil
		}
		return lines, nil
	})
}

// UpdateQuantity sets a line's quantity; qty <= 0 removes the line.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, qty int) error {
	return c.mutate(ctx, func(lines []CartLine) ([]CartLine, error) {
		i := indexOf(lines, productID)
		if i < 0 {
			return nil, ErrNotInCart
		}
		if qty <= 0 {
			return slices.Delete(lines, i, i+1), nil
		}
		lines[i].Quantity = qty
		return lines, nil
	})
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	return c.mutate(ctx, func([]CartLine) ([]CartLine, error) {
		return nil, nil
	})
}

// Total is the sum of line subtotals.
func (c *Cart) Total(ctx context.Context) (Price, error) {
	lines, err := c.Lines(ctx)
	if err != nil {
		return 0, err
	}
	var total Price
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total, nil
}

// Count is the number of items across all lines.
func (c *Cart) Count(ctx context.Context) (int, error) {
	lines, err := c.Lines(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n, nil
}

func (c *Cart) mutate(ctx context.Context, fn func([]CartLine) ([]CartLine, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(ctx); err != nil {
		return err
	}

	next, err := fn(slices.Clone(c.lines))
	if err != nil {
		return err
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("catalog: encode cart: %w", err)
	}
	if err := c.store.Set(ctx, CartKey, string(raw)); err != nil {
		return fmt.Errorf("catalog: save cart: %w", err)
	}
	c.lines = next
	return nil
}

func (c *Cart) loadLocked(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	raw, ok, err := c.store.Get(ctx, CartKey)
	if err != nil {
		return fmt.Errorf("catalog: read cart: %w", err)
	}
	c.loaded = true
	if !ok {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &c.lines); err != nil {
		c.logger.Warn(ctx, "discarding unreadable cart", observe.Err(err))
		c.lines = nil
	}
	return nil
}

func indexOf(lines []CartLine, productID string) int {
	return slices.IndexFunc(lines, func(l CartLine) bool { return l.Product.ID == productID })
}
