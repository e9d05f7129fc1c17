package session

import "context"

type contextKey int

const userKey contextKey = iota

// WithUser returns a context carrying user.
func WithUser(ctx context.Context, user *UserProfile) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user attached by WithUser, or nil.
func UserFromContext(ctx context.Context) *UserProfile {
	u, _ := ctx.Value(userKey).(*UserProfile)
	return u
}
