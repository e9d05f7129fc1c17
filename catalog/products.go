package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/vendora/backend"
	"github.com/jonwraymond/vendora/cache"
	"github.com/jonwraymond/vendora/observe"
	"github.com/jonwraymond/vendora/resilience"
	"github.com/jonwraymond/vendora/session"
)

const (
	// ProductsKey is the cache key of the product listing.
	ProductsKey = "products"

	// ProductsTTL is how long the listing stays cached.
	ProductsTTL = 30 * time.Minute

	productsTable = "products"
)

// Products reads and lists marketplace products.
type Products struct {
	client *backend.Client
	cache  *cache.Cache
	loader *cache.Loader[[]Product]
	access *session.AccessPolicy
	logger observe.Logger
}

func newProducts(client *backend.Client, c *cache.Cache, retry resilience.RetryPolicy, access *session.AccessPolicy, logger observe.Logger) *Products {
	p := &Products{client: client, cache: c, access: access, logger: logger}
	fetch := func(ctx context.Context) ([]Product, error) {
		return resilience.FetchWithRetry(ctx, retry, p.fetchAll)
	}
	p.loader = cache.NewLoader(c, ProductsKey, ProductsTTL, fetch,
		cache.WithEmpty(func(ps []Product) bool { return len(ps) == 0 }))
	return p
}

func (p *Products) fetchAll(ctx context.Context) ([]Product, error) {
	var out []Product
	err := p.client.From(productsTable).Order("created_at", false).Find(ctx, &out)
	return out, err
}

// Snapshot returns the cached listing, newest first.
func (p *Products) Snapshot(ctx context.Context) ([]Product, bool) {
	return p.loader.Snapshot(ctx)
}

// Refresh fetches the listing with retries and caches it when non-empty.
// A failed fetch falls back to the cached listing.
func (p *Products) Refresh(ctx context.Context) ([]Product, error) {
	return p.loader.Refresh(ctx)
}

// List serves the cached listing, fetching only on a miss.
func (p *Products) List(ctx context.Context) ([]Product, error) {
	if ps, ok := p.Snapshot(ctx); ok {
		return ps, nil
	}
	return p.Refresh(ctx)
}

// Get returns one product.
func (p *Products) Get(ctx context.Context, id string) (*Product, bool, error) {
	if id == "" {
		return nil, false, ErrMissingID
	}
	var out Product
	found, err := p.client.From(productsTable).Eq("id", id).MaybeSingle(ctx, &out)
	if err != nil || !found {
		return nil, false, err
	}
	return &out, true, nil
}

// ByIDs returns the products with the given ids in backend order.
func (p *Products) ByIDs(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []Product
	if err := p.client.From(productsTable).In("id", ids).Find(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create lists a product for the seller attached to ctx and invalidates
// the cached listing.
func (p *Products) Create(ctx context.Context, np NewProduct) (*Product, error) {
	if err := p.access.Require(ctx, productsTable, session.ActionWrite); err != nil {
		return nil, err
	}
	seller := session.UserFromContext(ctx)
	if seller == nil {
		return nil, session.ErrNotSignedIn
	}
	np.Title = strings.TrimSpace(np.Title)
	if np.Title == "" {
		return nil, ErrMissingTitle
	}
	if np.Price <= 0 {
		return nil, ErrInvalidPrice
	}

	row := map[string]any{
		"title":       np.Title,
		"price":       float64(np.Price),
		"category":    np.Category,
		"description": np.Description,
		"location":    np.Location,
		"image":       np.Image,
		"is_premium":  np.IsPremium,
		"rating":      0,
		"seller_id":   seller.ID,
	}

	var created []Product
	if err := p.client.From(productsTable).Insert(ctx, row, &created); err != nil {
		return nil, fmt.Errorf("catalog: create product: %w", err)
	}
	p.cache.Remove(ctx, ProductsKey)

	if len(created) == 0 {
		return nil, fmt.Errorf("catalog: create product: no row returned")
	}
	p.logger.Info(ctx, "product listed", observe.Field{Key: "product_id", Value: created[0].ID})
	return &created[0], nil
}

// BySeller returns the seller's listings, newest first.
func (p *Products) BySeller(ctx context.Context, sellerID string) ([]Product, error) {
	if sellerID == "" {
		return nil, ErrMissingUser
	}
	var out []Product
	err := p.client.From(productsTable).Eq("seller_id", sellerID).Order("created_at", false).Find(ctx, &out)
	return out, err
}
