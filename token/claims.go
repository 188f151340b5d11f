package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
	"golang.org/x/oauth2"
)

// RoleAdmin is the user_role claim value that grants access to admin views.
const RoleAdmin = "admin"

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims are the fields the OA backend puts into its access tokens.
type Claims struct {
	EmpID    string `json:"emp_id,omitempty"`
	Name     string `json:"name,omitempty"`
	UserRole string `json:"user_role,omitempty"`
	jwt.RegisteredClaims
}

// Decode extracts the claims from a raw token without verifying its
// signature. The result is only fit for UX decisions such as hiding admin
// views or scheduling a refresh; the server stays the sole authority on
// authorization.
func Decode(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, oaerrors.ErrInvalidToken
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, oaerrors.Wrapf(oaerrors.ErrInvalidToken, "decode claims: %v", err)
	}
	return claims, nil
}

// IsAdmin reports whether the token carries the admin role.
func (c *Claims) IsAdmin() bool {
	return c != nil && c.UserRole == RoleAdmin
}

// Expiry returns the exp claim, or the zero time when the token has none.
func (c *Claims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ExpiresIn returns exp - now. ok is false when the token has no exp claim.
func (c *Claims) ExpiresIn(now time.Time) (remaining time.Duration, ok bool) {
	exp := c.Expiry()
	if exp.IsZero() {
		return 0, false
	}
	return exp.Sub(now), true
}

// OAuth2Token wraps a raw bearer token so that oauth2.Token.SetAuthHeader
// can attach it to outbound requests.
func OAuth2Token(raw string) *oauth2.Token {
	t := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if claims, err := Decode(raw); err == nil {
		t.Expiry = claims.Expiry()
	}
	return t
}
