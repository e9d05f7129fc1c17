package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/jonwraymond/vendora/session"
)

func TestCategories_List(t *testing.T) {
	env := newTestEnv(t)
	env.rest.seed("categories",
		map[string]any{"id": "repair", "label": "Repair", "created_at": "2024-02-01T00:00:00Z"},
		map[string]any{"id": "trading", "label": "Trading", "created_at": "2024-01-01T00:00:00Z"},
	)

	got := env.catalog.Categories.List(context.Background())
	want := []string{"premium", "trading", "repair"}
	if len(got) != len(want) {
		t.Fatalf("List() = %+v", got)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("List()[%d] = %q, want %q", i, got[i].ID, id)
		}
	}
	if got[0] != PremiumCategory {
		t.Errorf("first category = %+v, want premium", got[0])
	}
}

func TestCategories_ListFallsBackToDefaults(t *testing.T) {
	env := newTestEnv(t)
	env.rest.failNext("categories", 10)

	got := env.catalog.Categories.List(context.Background())
	defaults := DefaultCategories()
	if len(got) != len(defaults) {
		t.Fatalf("List() = %+v, want defaults", got)
	}
	for i := range defaults {
		if got[i] != defaults[i] {
			t.Errorf("List()[%d] = %+v, want %+v", i, got[i], defaults[i])
		}
	}
}

func TestCategories_ListServesCachedOnFailure(t *testing.T) {
	env := newTestEnv(t)
	env.rest.seed("categories", map[string]any{"id": "logistics", "label": "Logistics"})
	ctx := context.Background()

	env.catalog.Categories.List(ctx)
	env.rest.failNext("categories", 10)

	got := env.catalog.Categories.List(ctx)
	if len(got) != 2 || got[1].ID != "logistics" {
		t.Errorf("List() = %+v, want premium + cached", got)
	}
}

func TestCategories_AdminList(t *testing.T) {
	env := newTestEnv(t)
	env.rest.seed("categories", map[string]any{"id": "repair", "label": "Repair"})
	ctx := context.Background()

	if got := env.catalog.Categories.AdminList(ctx); len(got) != 1 || got[0].ID != "repair" {
		t.Errorf("AdminList() = %+v", got)
	}

	env.rest.failNext("categories", 1)
	got := env.catalog.Categories.AdminList(ctx)
	if got == nil || len(got) != 0 {
		t.Errorf("AdminList() on failure = %#v, want empty", got)
	}
}

func TestCategories_AddAndDelete(t *testing.T) {
	env := newTestEnv(t)
	admin := as(session.RoleAdmin, "a1")

	c, err := env.catalog.Categories.Add(admin, "  Home Services ")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if c.ID != "home-services" || c.Label != "Home Services" || c.IconName != DefaultCategoryIcon || c.Color != DefaultCategoryColor {
		t.Errorf("Add() = %+v", c)
	}

	if err := env.catalog.Categories.Delete(admin, "home-services"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if rows := env.rest.rows("categories"); len(rows) != 0 {
		t.Errorf("rows after delete = %v", rows)
	}
}

func TestCategories_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	seller := as(session.RoleSeller, "s1")

	if _, err := env.catalog.Categories.Add(seller, "Pets"); !errors.Is(err, session.ErrForbidden) {
		t.Errorf("Add() error = %v, want %v", err, session.ErrForbidden)
	}
	if err := env.catalog.Categories.Delete(seller, "pets"); !errors.Is(err, session.ErrForbidden) {
		t.Errorf("Delete() error = %v, want %v", err, session.ErrForbidden)
	}
	if _, err := env.catalog.Categories.Add(as(session.RoleAdmin, "a"), "   "); !errors.Is(err, ErrMissingLabel) {
		t.Errorf("Add(blank) error = %v, want %v", err, ErrMissingLabel)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Repair":        "repair",
		"Home Services": "home-services",
		" Pet  Care ":   "pet--care",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
