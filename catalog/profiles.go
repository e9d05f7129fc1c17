package catalog

import (
	"context"
	"fmt"

	"github.com/jonwraymond/vendora/backend"
	"github.com/jonwraymond/vendora/session"
)

const profilesTable = "profiles"

// Profiles reads and writes the profiles table.
type Profiles struct {
	client *backend.Client
	access *session.AccessPolicy
}

// NewProfiles creates a profile store for client.
func NewProfiles(client *backend.Client, access *session.AccessPolicy) *Profiles {
	if access == nil {
		access = session.DefaultAccessPolicy()
	}
	return &Profiles{client: client, access: access}
}

// Fetch returns the profile of userID, or nil when there is none.
func (p *Profiles) Fetch(ctx context.Context, userID string) (*session.Profile, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	var out session.Profile
	found, err := p.client.From(profilesTable).Eq("id", userID).MaybeSingle(ctx, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

// Create inserts a profile row.
func (p *Profiles) Create(ctx context.Context, profile session.Profile) error {
	if profile.ID == "" {
		return ErrMissingUser
	}
	if err := p.client.From(profilesTable).Insert(ctx, profile, nil); err != nil {
		return fmt.Errorf("catalog: create profile: %w", err)
	}
	return nil
}

// List returns every profile, most recently updated first. Admin only.
func (p *Profiles) List(ctx context.Context) ([]session.Profile, error) {
	if err := p.access.Require(ctx, profilesTable, session.ActionRead); err != nil {
		return nil, err
	}
	var out []session.Profile
	err := p.client.From(profilesTable).Order("updated_at", false).Find(ctx, &out)
	return out, err
}

// Delete removes a profile. Admin only.
func (p *Profiles) Delete(ctx context.Context, userID string) error {
	if err := p.access.Require(ctx, profilesTable, session.ActionWrite); err != nil {
		return err
	}
	if userID == "" {
		return ErrMissingUser
	}
	if err := p.client.From(profilesTable).Eq("id", userID).Delete(ctx); err != nil {
		return fmt.Errorf("catalog: delete profile %q: %w", userID, err)
	}
	return nil
}

// Ensure Profiles implements session.ProfileStore
var _ session.ProfileStore = (*Profiles)(nil)
