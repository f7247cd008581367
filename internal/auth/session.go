// Package auth models the authenticated session supplied by the
// authentication collaborator. The engine is inert without one: sync never
// pushes or pulls when no valid session exists.
package auth

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims the engine cares about. The subject is
// the owning user id used to partition the remote store.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// Session identifies the authenticated user for one or more sync cycles.
type Session struct {
	UserID      string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// SessionFromToken extracts the session from a bearer access token issued
// by the auth backend. Only the claims are read; signature verification is
// the server's job (the client never holds the signing secret), so a forged
// token buys nothing beyond rejected requests.
func SessionFromToken(tokenString string) (Session, error) {
	claims := &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return Session{}, fmt.Errorf("failed to parse access token: %w", err)
	}

	if claims.Subject == "" {
		return Session{}, fmt.Errorf("access token has no subject: %w", common.ErrNoSession)
	}

	s := Session{
		UserID:      claims.Subject,
		Email:       claims.Email,
		AccessToken: tokenString,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Valid reports whether the session identifies a user and has not expired
// at the given instant. A zero ExpiresAt means the token carries no expiry
// and is treated as valid.
func (s Session) Valid(now time.Time) bool {
	if s.UserID == "" {
		return false
	}
	if s.ExpiresAt.IsZero() {
		return true
	}
	return now.Before(s.ExpiresAt)
}
