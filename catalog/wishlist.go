package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/jonwraymond/vendora/backend"
	"github.com/jonwraymond/vendora/observe"
	"github.com/jonwraymond/vendora/session"
	"github.com/jonwraymond/vendora/store"
)

const (
	// GuestWishlistKey is the store key of the guest wishlist.
	GuestWishlistKey = "vendora_wishlist"

	wishlistTable = "wishlist"
)

// Wishlist tracks saved products. Signed-in users (session.WithUser) use
// the wishlist table; guests keep a list of product ids in the store.
type Wishlist struct {
	client   *backend.Client
	store    store.Store
	products *Products
	logger   observe.Logger

	// guestMu serializes read-modify-write of the guest list.
	guestMu sync.Mutex
}

func newWishlist(client *backend.Client, st store.Store, products *Products, logger observe.Logger) *Wishlist {
	return &Wishlist{client: client, store: st, products: products, logger: logger}
}

// IDs returns the saved product ids.
func (w *Wishlist) IDs(ctx context.Context) ([]string, error) {
	user := session.UserFromContext(ctx)
	if user == nil {
		w.guestMu.Lock()
		defer w.guestMu.Unlock()
		return w.guestIDs(ctx)
	}

	var rows []WishlistItem
	err := w.client.From(wishlistTable).Select("product_id").Eq("user_id", user.ID).Find(ctx, &rows)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ProductID
	}
	return ids, nil
}

// Contains reports whether productID is saved.
func (w *Wishlist) Contains(ctx context.Context, productID string) (bool, error) {
	ids, err := w.IDs(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, productID), nil
}

// Toggle saves productID, or removes it when already saved. It reports
// whether the product is saved afterwards.
func (w *Wishlist) Toggle(ctx context.Context, productID string) (bool, error) {
	if productID == "" {
		return false, ErrMissingID
	}

	user := session.UserFromContext(ctx)
	if user == nil {
		return w.toggleGuest(ctx, productID)
	}

	saved, err := w.Contains(ctx, productID)
	if err != nil {
		return false, err
	}
	if saved {
		err := w.client.From(wishlistTable).Eq("user_id", user.ID).Eq("product_id", productID).Delete(ctx)
		if err != nil {
			return true, fmt.Errorf("catalog: remove from wishlist: %w", err)
		}
		return false, nil
	}

	row := WishlistItem{UserID: user.ID, ProductID: productID}
	if err := w.client.From(wishlistTable).Insert(ctx, row, nil); err != nil {
		return false, fmt.Errorf("catalog: add to wishlist: %w", err)
	}
	return true, nil
}

// Products returns the saved products.
func (w *Wishlist) Products(ctx context.Context) ([]Product, error) {
	ids, err := w.IDs(ctx)
	if err != nil {
		return nil, err
	}
	return w.products.ByIDs(ctx, ids)
}

func (w *Wishlist) toggleGuest(ctx context.Context, productID string) (bool, error) {
	w.guestMu.Lock()
	defer w.guestMu.Unlock()

	ids, err := w.guestIDs(ctx)
	if err != nil {
		return false, err
	}

	saved := false
	if i := slices.Index(ids, productID); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	} else {
		ids = append(ids, productID)
		saved = true
	}

	raw, err := json.Marshal(ids)
	if err != nil {
		return false, fmt.Errorf("catalog: encode guest wishlist: %w", err)
	}
	if err := w.store.Set(ctx, GuestWishlistKey, string(raw)); err != nil {
		return false, fmt.Errorf("catalog: save guest wishlist: %w", err)
	}
	return saved, nil
}

func (w *Wishlist) guestIDs(ctx context.Context) ([]string, error) {
	raw, ok, err := w.store.Get(ctx, GuestWishlistKey)
	if err != nil {
		return nil, fmt.Errorf("catalog: read guest wishlist: %w", err)
	}
	if !ok {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		w.logger.Warn(ctx, "discarding unreadable guest wishlist", observe.Err(err))
		return []string{}, nil
	}
	return ids, nil
}
