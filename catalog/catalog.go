package catalog

import (
	"github.com/jonwraymond/vendora/backend"
	"github.com/jonwraymond/vendora/cache"
	"github.com/jonwraymond/vendora/observe"
	"github.com/jonwraymond/vendora/resilience"
	"github.com/jonwraymond/vendora/session"
	"github.com/jonwraymond/vendora/store"
)

// Config configures a Catalog.
type Config struct {
	Client *backend.Client
	Cache  *cache.Cache

	// Store holds the cart and the guest wishlist.
	Store store.Store

	// Retry wraps list fetches. Default: resilience.DefaultRetryPolicy()
	Retry *resilience.RetryPolicy

	// Access guards role-restricted writes. Default: session.DefaultAccessPolicy()
	Access *session.AccessPolicy

	Logger observe.Logger
}

// Catalog groups the marketplace repositories.
type Catalog struct {
	Products   *Products
	Categories *Categories
	Wishlist   *Wishlist
	Orders     *Orders
	Profiles   *Profiles
	Cart       *Cart
}

// New validates cfg and wires the repositories.
func New(cfg Config) (*Catalog, error) {
	if cfg.Client == nil {
		return nil, ErrMissingClient
	}
	if cfg.Cache == nil {
		return nil, ErrMissingCache
	}
	if cfg.Store == nil {
		return nil, ErrMissingStore
	}
	if cfg.Retry == nil {
		p := resilience.DefaultRetryPolicy()
		cfg.Retry = &p
	}
	if cfg.Access == nil {
		cfg.Access = session.DefaultAccessPolicy()
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	logger := cfg.Logger.With(observe.Field{Key: "component", Value: "catalog"})

	retry := *cfg.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = logRetry(logger)
	}

	products := newProducts(cfg.Client, cfg.Cache, retry, cfg.Access, logger)
	return &Catalog{
		Products:   products,
		Categories: newCategories(cfg.Client, cfg.Cache, retry, cfg.Access, logger),
		Wishlist:   newWishlist(cfg.Client, cfg.Store, products, logger),
		Orders:     &Orders{client: cfg.Client},
		Profiles:   NewProfiles(cfg.Client, cfg.Access),
		Cart:       NewCart(cfg.Store, logger),
	}, nil
}
