package backend

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access token claims the client relies on.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// ParseClaims decodes an access token without verifying its signature.
// The backend verifies tokens; the client only reads expiry and subject.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("backend: parse access token: %w", err)
	}
	return claims, nil
}
