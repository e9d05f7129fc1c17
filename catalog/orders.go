package catalog

import (
	"context"

	"github.com/jonwraymond/vendora/backend"
)

// Orders reads purchase history.
type Orders struct {
	client *backend.Client
}

// History returns userID's orders, newest first.
func (o *Orders) History(ctx context.Context, userID string) ([]Order, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	var out []Order
	err := o.client.From("orders").Eq("user_id", userID).Order("created_at", false).Find(ctx, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
