package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for session operations.
var (
	ErrMissingAuth        = errors.New("session: auth backend is required")
	ErrMissingGateway     = errors.New("session: auth gateway is required")
	ErrMissingProfiles    = errors.New("session: profile store is required")
	ErrMissingCredentials = errors.New("session: email and password are required")
	ErrPasswordTooShort   = errors.New("session: password is too short")
	ErrInvalidRole        = errors.New("session: invalid account role")
	ErrNoIdentity         = errors.New("session: token response carries no user")
	ErrNotSignedIn        = errors.New("session: not signed in")
	ErrForbidden          = errors.New("session: access denied")
)

// AccessError reports a denied access check.
type AccessError struct {
	// Subject is the user id, empty for guests.
	Subject  string
	Resource string
	Action   string
	Reason   string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("session: access denied: subject=%q resource=%q action=%q reason=%q",
		e.Subject, e.Resource, e.Action, e.Reason)
}

// Is matches ErrForbidden.
func (e *AccessError) Is(target error) bool {
	return target == ErrForbidden
}
