package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("k")

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("user-1", secret, time.Hour)
	require.NoError(t, err)

	id, err := GetUserIDFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestTokensAreUnique(t *testing.T) {
	t.Parallel()

	a, err := GenerateToken("user-1", secret, time.Hour)
	require.NoError(t, err)
	b, err := GenerateToken("user-1", secret, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestGetUserIDFromToken_Rejects(t *testing.T) {
	t.Parallel()

	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	expired, err := GenerateToken("user-1", secret, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", expired, common.ErrTokenExpired},
		{"wrong key", sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{Issuer: Issuer, Subject: "u", ExpiresAt: future}), common.ErrInvalidToken},
		{"foreign issuer", sign(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Issuer: "elsewhere", Subject: "u", ExpiresAt: future}), common.ErrInvalidToken},
		{"no expiry", sign(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Issuer: Issuer, Subject: "u"}), common.ErrInvalidToken},
		{"no subject", sign(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Issuer: Issuer, ExpiresAt: future}), common.ErrInvalidToken},
		{"other algorithm", sign(t, jwt.SigningMethodHS512, secret, jwt.RegisteredClaims{Issuer: Issuer, Subject: "u", ExpiresAt: future}), common.ErrInvalidToken},
		{"garbage", "not.a.jwt", common.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GetUserIDFromToken(tt.token, secret)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
