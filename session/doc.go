// Package session owns the signed-in user as seen by the rest of the
// application.
//
// A Provider is the only writer of a State. It resolves the stored session
// at startup (Bootstrap), follows auth changes (Watch) and performs login,
// registration, logout and password changes. Both Bootstrap and Login race
// the backend against a hard timeout, so callers never wait on a stalled
// backend for longer than the configured bound:
//
//	p, _ := session.NewProvider(session.Config{Auth: auth, Gateway: client, Profiles: profiles})
//	snap := p.Bootstrap(ctx) // snap.Loading is false within BootstrapTimeout
//
// Readers take a Snapshot or Subscribe to changes; they never mutate it.
//
// Access checks use a role policy (AccessPolicy) evaluated against the
// UserProfile attached to a context with WithUser.
package session
