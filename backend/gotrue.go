package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const authPath = "/auth/v1"

// InvalidCredentials is the message used when a failed password grant
// carries no description.
const InvalidCredentials = "Invalid login credentials"

// PasswordGrant exchanges an email and password for a session.
func (c *Client) PasswordGrant(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	err := c.do(ctx, request{
		op:       "password_grant",
		method:   http.MethodPost,
		path:     authPath + "/token",
		query:    url.Values{"grant_type": {"password"}},
		body:     map[string]string{"email": email, "password": password},
		fallback: InvalidCredentials,
	}, &s)
	if err != nil {
		return nil, err
	}
	c.complete(&s)
	return &s, nil
}

// RefreshGrant exchanges a refresh token for a new session.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*Session, error) {
	var s Session
	err := c.do(ctx, request{
		op:     "refresh_grant",
		method: http.MethodPost,
		path:   authPath + "/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &s)
	if err != nil {
		return nil, err
	}
	c.complete(&s)
	return &s, nil
}

// SignUp creates a user. The result carries a session only when the
// backend does not require email confirmation.
func (c *Client) SignUp(ctx context.Context, params SignUpParams) (*SignUpResult, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		op:     "signup",
		method: http.MethodPost,
		path:   authPath + "/signup",
		body:   params,
	}, &raw)
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("backend: decode signup response: %w", err)
	}
	if s.AccessToken != "" {
		c.complete(&s)
		return &SignUpResult{User: s.User, Session: &s}, nil
	}

	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("backend: decode signup user: %w", err)
	}
	return &SignUpResult{User: &u}, nil
}

// Recover sends a password reset email that links to redirectTo.
func (c *Client) Recover(ctx context.Context, email, redirectTo string) error {
	var q url.Values
	if redirectTo != "" {
		q = url.Values{"redirect_to": {redirectTo}}
	}
	return c.do(ctx, request{
		op:     "recover",
		method: http.MethodPost,
		path:   authPath + "/recover",
		query:  q,
		body:   map[string]string{"email": email},
	}, nil)
}

// GetUser returns the user that owns accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var u User
	err := c.do(ctx, request{
		op:     "get_user",
		method: http.MethodGet,
		path:   authPath + "/user",
		token:  accessToken,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser changes the attributes of the user that owns accessToken.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, attrs UserAttributes) (*User, error) {
	var u User
	err := c.do(ctx, request{
		op:     "update_user",
		method: http.MethodPut,
		path:   authPath + "/user",
		body:   attrs,
		token:  accessToken,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout revokes the session that owns accessToken.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, request{
		op:     "logout",
		method: http.MethodPost,
		path:   authPath + "/logout",
		token:  accessToken,
	}, nil)
}

// Health checks the auth service.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, request{
		op:     "health",
		method: http.MethodGet,
		path:   authPath + "/health",
	}, nil)
}

// complete fills ExpiresAt and User from the access token when the
// response omits them.
func (c *Client) complete(s *Session) {
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = c.now().Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
	}
	if s.ExpiresAt != 0 && s.User != nil {
		return
	}

	claims, err := ParseClaims(s.AccessToken)
	if err != nil {
		return
	}
	if s.ExpiresAt == 0 && claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Unix()
	}
	if s.User == nil && claims.Subject != "" {
		s.User = &User{
			ID:    claims.Subject,
			Email: claims.Email,
			Phone: claims.Phone,
			Role:  claims.Role,
		}
	}
}
