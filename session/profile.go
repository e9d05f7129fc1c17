package session

import (
	"strings"
	"time"

	"github.com/jonwraymond/vendora/backend"
)

// Account roles.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

// MinPasswordLength is the shortest password accepted by UpdatePassword.
const MinPasswordLength = 6

// ValidRole reports whether role is a known account role.
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// Profile is a row of the profiles table.
type Profile struct {
	ID               string     `json:"id"`
	FullName         string     `json:"full_name,omitempty"`
	Role             string     `json:"role,omitempty"`
	City             string     `json:"city,omitempty"`
	State            string     `json:"state,omitempty"`
	CommissionAgreed bool       `json:"commission_agreed"`
	AvatarURL        string     `json:"avatar_url,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// UserProfile is the signed-in user: backend identity merged with the
// profile row.
type UserProfile struct {
	// Identity fields.
	ID        string         `json:"id"`
	Email     string         `json:"email,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	AuthRole  string         `json:"auth_role,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
	Metadata  map[string]any `json:"user_metadata,omitempty"`

	// Profile fields.
	FullName         string     `json:"full_name,omitempty"`
	Role             string     `json:"role,omitempty"`
	City             string     `json:"city,omitempty"`
	State            string     `json:"state,omitempty"`
	CommissionAgreed bool       `json:"commission_agreed"`
	AvatarURL        string     `json:"avatar_url,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`

	// Session is set when the user was built from a raw token response
	// rather than from the installed session.
	Session *backend.Session `json:"-"`

	// HasProfile is false when the profile row was missing or could not be
	// fetched.
	HasProfile bool `json:"-"`
}

// Merge combines identity and profile. profile may be nil. ID and Email
// always come from identity. Role comes only from the profile row, since
// identity metadata is user-writable; FullName prefers the profile, then
// the metadata.
func Merge(identity *backend.User, profile *Profile) *UserProfile {
	if identity == nil {
		return nil
	}
	u := &UserProfile{
		ID:        identity.ID,
		Email:     identity.Email,
		Phone:     identity.Phone,
		AuthRole:  identity.Role,
		CreatedAt: identity.CreatedAt,
		Metadata:  identity.UserMetadata,
		FullName:  identity.MetadataString("full_name"),
	}

	if profile == nil {
		return u
	}
	u.HasProfile = true
	if profile.FullName != "" {
		u.FullName = profile.FullName
	}
	if profile.Role != "" {
		u.Role = profile.Role
	}
	u.City = profile.City
	u.State = profile.State
	u.CommissionAgreed = profile.CommissionAgreed
	u.AvatarURL = profile.AvatarURL
	u.UpdatedAt = profile.UpdatedAt
	return u
}

// EffectiveRole is Role, or RoleCustomer when the user has no profile role.
func (u *UserProfile) EffectiveRole() string {
	if u == nil || u.Role == "" {
		return RoleCustomer
	}
	return u.Role
}

// IsAdmin reports whether the user holds the admin role.
func (u *UserProfile) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// DisplayName is the short name shown in navigation: "Admin" for admins,
// otherwise the first word of the full name, the local part of the email,
// or "User".
func (u *UserProfile) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.IsAdmin() {
		return "Admin"
	}
	if first, _, _ := strings.Cut(strings.TrimSpace(u.FullName), " "); first != "" {
		return first
	}
	if local, _, _ := strings.Cut(u.Email, "@"); local != "" {
		return local
	}
	return "User"
}

// ParseAddress splits a "City, State" form value.
func ParseAddress(address string) (city, state string) {
	city, state, _ = strings.Cut(address, ",")
	if i := strings.Index(state, ","); i >= 0 {
		state = state[:i]
	}
	return strings.TrimSpace(city), strings.TrimSpace(state)
}
