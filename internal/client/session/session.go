// Package session holds the client's authenticated identity. The session is
// passed explicitly into the orchestrator rather than living in package
// globals, so workflows stay testable in isolation.
package session

import (
	"fmt"
	"time"

	"github.com/docforge/docforge/internal/client/quota"
	"github.com/docforge/docforge/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated user as encoded in the access token.
type Identity struct {
	ID      string
	Email   string
	Plan    quota.Plan
	IsAdmin bool
}

// Session bundles the identity with its token pair. The access token is
// parsed locally (without signature verification; that is the server's job)
// to read claims and expiry.
type Session struct {
	Identity     Identity
	AccessToken  string
	RefreshToken string

	expiresAt time.Time
	now       func() time.Time
}

// tokenClaims mirrors the claim set minted by the processor service.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID  string `json:"uid"`
	Email   string `json:"email"`
	Plan    string `json:"plan"`
	IsAdmin bool   `json:"admin"`
}

// FromTokens builds a Session from a freshly issued token pair.
func FromTokens(accessToken, refreshToken string) (*Session, error) {
	s := &Session{now: time.Now}
	if err := s.Update(accessToken, refreshToken); err != nil {
		return nil, err
	}
	return s, nil
}

// Update replaces the token pair, e.g. after a refresh round-trip.
func (s *Session) Update(accessToken, refreshToken string) error {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return fmt.Errorf("%w: missing user id claim", common.ErrInvalidToken)
	}

	s.AccessToken = accessToken
	s.RefreshToken = refreshToken
	s.Identity = Identity{
		ID:      claims.UserID,
		Email:   claims.Email,
		Plan:    quota.Plan(claims.Plan),
		IsAdmin: claims.IsAdmin,
	}
	if claims.ExpiresAt != nil {
		s.expiresAt = claims.ExpiresAt.Time
	} else {
		s.expiresAt = time.Time{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return nil
}

// Live reports whether the access token is present and unexpired. Tokens
// without an expiry claim are treated as expired.
func (s *Session) Live() bool {
	if s == nil || s.AccessToken == "" || s.expiresAt.IsZero() {
		return false
	}
	return s.now().Before(s.expiresAt)
}

// Require returns ErrSessionExpired unless the session is live. Workflows
// call it before any remote invocation.
func (s *Session) Require() error {
	if !s.Live() {
		return common.ErrSessionExpired
	}
	return nil
}
