package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed lifetime of every session token.
const TokenTTL = time.Hour

// Claims is the payload of a session token: sub, user_id, role, iat and exp.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenSigner issues session tokens.
type TokenSigner interface {
	Issue(username string, userID int64, role string) (string, error)
}

// TokenIssuer signs HS256 session tokens with a process-wide secret.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer returns an issuer signing with secret. An empty secret is
// accepted here and reported as ErrIssuance on every Issue call.
func NewTokenIssuer(secret []byte) *TokenIssuer {
	return &TokenIssuer{secret: secret, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	return &TokenIssuer{secret: i.secret, now: now}
}

// Issue returns a compact, URL-safe signed token expiring TokenTTL after now.
func (i *TokenIssuer) Issue(username string, userID int64, role string) (string, error) {
	if len(i.secret) == 0 {
		return "", fmt.Errorf("%w: signing key is empty", ErrIssuance)
	}

	issuedAt := i.now().UTC().Truncate(time.Second)
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIssuance, err)
	}
	return signed, nil
}
