package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, sub, email string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: email,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestSessionFromToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signedToken(t, "user-1", "a@b.c", exp)

	s, err := SessionFromToken(tok)
	require.NoError(t, err)

	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, "a@b.c", s.Email)
	assert.Equal(t, tok, s.AccessToken)
	assert.True(t, s.ExpiresAt.Equal(exp))
}

func TestSessionFromToken_Garbage(t *testing.T) {
	_, err := SessionFromToken("not-a-jwt")
	require.Error(t, err)
}

func TestSessionFromToken_NoSubject(t *testing.T) {
	tok := signedToken(t, "", "", time.Now().Add(time.Hour))
	_, err := SessionFromToken(tok)
	require.Error(t, err)
}

func TestSession_Valid(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		s    Session
		want bool
	}{
		{"live", Session{UserID: "u", ExpiresAt: now.Add(time.Minute)}, true},
		{"expired", Session{UserID: "u", ExpiresAt: now.Add(-time.Minute)}, false},
		{"no expiry", Session{UserID: "u"}, true},
		{"no user", Session{ExpiresAt: now.Add(time.Minute)}, false},
		{"zero", Session{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.s.Valid(now))
		})
	}
}
