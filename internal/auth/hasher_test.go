package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	passwords := []string{"secret123", "x", "pässwörd", "with spaces and symbols !@#$%^&*()", strings.Repeat("a", MaxPasswordBytes)}
	for _, p := range passwords {
		hash, err := h.Hash(p)
		require.NoError(t, err, p)
		assert.True(t, h.Verify(p, hash), "verify(%q, hash(%q))", p, p)
	}
}

func TestBcryptHasher_RejectsOtherPasswords(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret123")
	require.NoError(t, err)

	for _, q := range []string{"secret124", "Secret123", "secret12", "secret1234", "", " secret123"} {
		assert.False(t, h.Verify(q, hash), "verify(%q, hash(secret123))", q)
	}

	// bcrypt ignores everything past byte 72; a suffix must not slip through.
	full := strings.Repeat("a", MaxPasswordBytes)
	hash, err = h.Hash(full)
	require.NoError(t, err)
	assert.True(t, h.Verify(full, hash))
	assert.False(t, h.Verify(full+"EXTRA", hash))
	assert.False(t, h.Verify(full+"a", hash))
}

func TestBcryptHasher_SaltsEveryHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, err := h.Hash("secret123")
	require.NoError(t, err)
	b, err := h.Hash("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotContains(t, string(a), "secret123")
}

func TestBcryptHasher_EncodesAlgorithmAndCost(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(hash), "$2a$04$"), string(hash))
	cost, err := bcrypt.Cost(hash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestBcryptHasher_VerifiesHashesFromOlderCost(t *testing.T) {
	old := NewBcryptHasher(bcrypt.MinCost)
	hash, err := old.Hash("secret123")
	require.NoError(t, err)

	current := NewBcryptHasher(bcrypt.MinCost + 1)
	assert.True(t, current.Verify("secret123", hash))
}

func TestBcryptHasher_MalformedHashIsMismatch(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("secret123", nil))
	assert.False(t, h.Verify("secret123", []byte("not-a-bcrypt-hash")))
	assert.False(t, h.Verify("secret123", []byte("$2a$04$short")))
}

func TestBcryptHasher_TooLong(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewBcryptHasher_CostBounds(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).Cost())
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).Cost())
	assert.Equal(t, 12, NewBcryptHasher(12).Cost())
}
