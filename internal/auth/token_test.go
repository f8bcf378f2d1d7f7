package auth

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issuedAt = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func parseToken(t *testing.T, token string, secret []byte) *Claims {
	t.Helper()
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return issuedAt.Add(time.Minute) }),
	)
	require.NoError(t, err)
	return claims
}

func TestTokenIssuer_Claims(t *testing.T) {
	secret := []byte("test-secret")
	issuer := NewTokenIssuer(secret).WithClock(func() time.Time { return issuedAt })

	token, err := issuer.Issue("alice", 42, "ADMIN")
	require.NoError(t, err)

	claims := parseToken(t, token, secret)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.IssuedAt.Time.Equal(issuedAt))
	assert.True(t, claims.ExpiresAt.Time.Equal(issuedAt.Add(time.Hour)))
	assert.Equal(t, TokenTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestTokenIssuer_CompactURLSafe(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"))

	token, err := issuer.Issue("bob", 7, "USER")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`), token)
}

func TestTokenIssuer_PayloadFieldNames(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret")).WithClock(func() time.Time { return issuedAt })

	token, err := issuer.Issue("bob", 7, "USER")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "bob", payload["sub"])
	assert.Equal(t, float64(7), payload["user_id"])
	assert.Equal(t, "USER", payload["role"])
	assert.Equal(t, float64(issuedAt.Unix()), payload["iat"])
	assert.Equal(t, float64(issuedAt.Add(time.Hour).Unix()), payload["exp"])
}

func TestTokenIssuer_WrongSecretFailsVerification(t *testing.T) {
	token, err := NewTokenIssuer([]byte("right")).Issue("alice", 1, "USER")
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) { return []byte("wrong"), nil })
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestTokenIssuer_EmptySecret(t *testing.T) {
	token, err := NewTokenIssuer(nil).Issue("alice", 1, "USER")
	assert.Empty(t, token)
	assert.ErrorIs(t, err, ErrIssuance)
}
