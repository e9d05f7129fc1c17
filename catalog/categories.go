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
	// AdminFetchTimeout bounds the admin category listing.
	AdminFetchTimeout = 5 * time.Second

	// DefaultCategoryIcon and DefaultCategoryColor style categories added
	// by admins.
	DefaultCategoryIcon  = "Box"
	DefaultCategoryColor = "#A2C2F2"

	categoriesTable = "categories"
)

// PremiumCategory is the pseudo-category listing premium products.
var PremiumCategory = Category{ID: "premium", Label: "Premium", IconName: "Diamond", Color: "#FFAB00"}

// DefaultCategories is shown when the categories table cannot be read.
func DefaultCategories() []Category {
	return []Category{
		PremiumCategory,
		{ID: "trading", Label: "Trading", IconName: "Smartphone", Color: DefaultCategoryColor},
		{ID: "catering", Label: "Catering", IconName: "Utensils", Color: DefaultCategoryColor},
		{ID: "repair", Label: "Repair", IconName: "Wrench", Color: DefaultCategoryColor},
		{ID: "logistics", Label: "Logistics", IconName: "Truck", Color: DefaultCategoryColor},
	}
}

// Slug derives a category id from its label.
func Slug(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "-")
}

// Categories manages product categories.
type Categories struct {
	client *backend.Client
	cache  *cache.Cache
	loader *cache.Loader[[]Category]
	access *session.AccessPolicy
	logger observe.Logger
}

func newCategories(client *backend.Client, c *cache.Cache, retry resilience.RetryPolicy, access *session.AccessPolicy, logger observe.Logger) *Categories {
	cs := &Categories{client: client, cache: c, access: access, logger: logger}

	key, err := cache.NewQueryKeyer().Key(categoriesTable, map[string]string{"order": "created_at.asc"})
	if err != nil {
		key = categoriesTable
	}
	fetch := func(ctx context.Context) ([]Category, error) {
		return resilience.FetchWithRetry(ctx, retry, cs.fetchAll)
	}
	cs.loader = cache.NewLoader(c, key, 0, fetch)
	return cs
}

func (cs *Categories) fetchAll(ctx context.Context) ([]Category, error) {
	var out []Category
	err := cs.client.From(categoriesTable).Order("created_at", true).Find(ctx, &out)
	return out, err
}

// List returns the premium pseudo-category followed by the stored
// categories, oldest first. It never fails: when the table cannot be read
// and nothing is cached, DefaultCategories is returned.
func (cs *Categories) List(ctx context.Context) []Category {
	stored, err := cs.loader.Refresh(ctx)
	if err != nil {
		cs.logger.Warn(ctx, "using default categories", observe.Err(err))
		return DefaultCategories()
	}
	return append([]Category{PremiumCategory}, stored...)
}

// AdminList returns the stored categories for the admin dashboard. The
// fetch is time-boxed to AdminFetchTimeout; any failure yields an empty
// list.
func (cs *Categories) AdminList(ctx context.Context) []Category {
	out, err := resilience.WithTimeout(ctx, AdminFetchTimeout, cs.fetchAll)
	if err != nil {
		cs.logger.Warn(ctx, "admin category fetch failed", observe.Err(err))
		return []Category{}
	}
	return out
}

// Add creates a category from label. Admin only.
func (cs *Categories) Add(ctx context.Context, label string) (*Category, error) {
	if err := cs.access.Require(ctx, categoriesTable, session.ActionWrite); err != nil {
		return nil, err
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrMissingLabel
	}

	c := Category{ID: Slug(label), Label: label, IconName: DefaultCategoryIcon, Color: DefaultCategoryColor}
	var created []Category
	if err := cs.client.From(categoriesTable).Insert(ctx, c, &created); err != nil {
		return nil, fmt.Errorf("catalog: add category %q: %w", c.ID, err)
	}
	cs.cache.Remove(ctx, cs.loader.Key())
	if len(created) > 0 {
		return &created[0], nil
	}
	return &c, nil
}

// Delete removes a category. Admin only.
func (cs *Categories) Delete(ctx context.Context, id string) error {
	if err := cs.access.Require(ctx, categoriesTable, session.ActionWrite); err != nil {
		return err
	}
	if id == "" {
		return ErrMissingID
	}
	if err := cs.client.From(categoriesTable).Eq("id", id).Delete(ctx); err != nil {
		return fmt.Errorf("catalog: delete category %q: %w", id, err)
	}
	cs.cache.Remove(ctx, cs.loader.Key())
	return nil
}
