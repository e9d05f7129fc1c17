package catalog

import (
	"context"
	"errors"
	"testing"
)

func TestOrders_History(t *testing.T) {
	env := newTestEnv(t)
	env.rest.seed("orders",
		map[string]any{"id": "o1", "user_id": "u1", "created_at": "2024-01-05T10:00:00Z", "total_amount": 15000, "status": "delivered",
			"items": []any{map[string]any{"title": "Cleaning"}}},
		map[string]any{"id": "o2", "user_id": "u1", "created_at": "2024-02-05T10:00:00Z", "total_amount": "465,000", "status": "pending",
			"items": []any{map[string]any{"title": "iPhone"}, map[string]any{"title": "Case"}}},
		map[string]any{"id": "o3", "user_id": "u2", "created_at": "2024-03-05T10:00:00Z", "total_amount": 1, "status": "pending"},
	)

	got, err := env.catalog.Orders.History(context.Background(), "u1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "o2" || got[1].ID != "o1" {
		t.Fatalf("History() = %+v, want o2, o1", got)
	}
	if got[0].TotalAmount != 465000 {
		t.Errorf("TotalAmount = %v", got[0].TotalAmount)
	}
	if got[0].Summary() != "iPhone, Case" {
		t.Errorf("Summary() = %q", got[0].Summary())
	}
}

func TestOrders_HistoryRequiresUser(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.catalog.Orders.History(context.Background(), ""); !errors.Is(err, ErrMissingUser) {
		t.Errorf("History(\"\") error = %v, want %v", err, ErrMissingUser)
	}
}

func TestOrder_SummaryWithoutItems(t *testing.T) {
	if got := (Order{}).Summary(); got != "Items" {
		t.Errorf("Summary() = %q, want Items", got)
	}
}
