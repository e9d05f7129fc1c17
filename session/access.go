package session

import (
	"context"
	"strings"
)

// Actions checked by the marketplace.
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// AccessPolicy grants permissions to account roles.
//
// Permissions have the form "<resource>:<action>"; either part may be "*".
// A bare "*" grants everything.
type AccessPolicy struct {
	Roles map[string]RoleGrant

	// GuestPermissions apply when no user is signed in.
	GuestPermissions []string

	// AdminEmails are treated as admins regardless of their role.
	AdminEmails []string
}

// RoleGrant lists a role's permissions and the roles it inherits.
type RoleGrant struct {
	Permissions []string
	Inherits    []string
}

// DefaultAccessPolicy returns the marketplace roles: customers manage their
// wishlist, cart and orders; sellers also list products; admins may do
// anything.
func DefaultAccessPolicy() *AccessPolicy {
	return &AccessPolicy{
		GuestPermissions: []string{
			"products:read",
			"categories:read",
			"cart:*",
			"wishlist:*",
		},
		Roles: map[string]RoleGrant{
			RoleCustomer: {
				Permissions: []string{"products:read", "categories:read", "cart:*", "wishlist:*", "orders:read"},
			},
			RoleSeller: {
				Permissions: []string{"products:write"},
				Inherits:    []string{RoleCustomer},
			},
			RoleAdmin: {
				Permissions: []string{"*"},
			},
		},
	}
}

// Authorize reports whether user may perform action on resource. user may
// be nil for guests. A denial is an *AccessError matching ErrForbidden.
func (p *AccessPolicy) Authorize(user *UserProfile, resource, action string) error {
	perms := p.GuestPermissions
	subject := ""
	if user != nil {
		subject = user.ID
		perms = p.permissions(p.rolesOf(user))
	}

	for _, perm := range perms {
		if matchPermission(perm, resource, action) {
			return nil
		}
	}

	reason := "no role permits this action"
	if user == nil {
		reason = "sign in required"
	}
	return &AccessError{Subject: subject, Resource: resource, Action: action, Reason: reason}
}

// Require checks the user attached to ctx.
func (p *AccessPolicy) Require(ctx context.Context, resource, action string) error {
	return p.Authorize(UserFromContext(ctx), resource, action)
}

func (p *AccessPolicy) rolesOf(user *UserProfile) []string {
	roles := []string{user.EffectiveRole()}
	for _, email := range p.AdminEmails {
		if email != "" && strings.EqualFold(email, user.Email) {
			roles = append(roles, RoleAdmin)
			break
		}
	}
	return roles
}

// permissions expands roles through inheritance.
func (p *AccessPolicy) permissions(roles []string) []string {
	seen := make(map[string]bool)
	var perms []string

	pending := append([]string(nil), roles...)
	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]
		if seen[current] {
			continue
		}
		seen[current] = true

		grant, ok := p.Roles[current]
		if !ok {
			continue
		}
		perms = append(perms, grant.Permissions...)
		for _, inherited := range grant.Inherits {
			if !seen[inherited] {
				pending = append(pending, inherited)
			}
		}
	}
	return perms
}

func matchPermission(perm, resource, action string) bool {
	if perm == "*" {
		return true
	}
	res, act, ok := strings.Cut(perm, ":")
	if !ok {
		return false
	}
	return (res == "*" || res == resource) && (act == "*" || act == action)
}
