package auth

import (
	"errors"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the bcrypt input limit; longer passwords are rejected instead of truncated.
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned by Hash for passwords over MaxPasswordBytes.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// PasswordHasher turns passwords into storable one-way hashes and checks them.
type PasswordHasher interface {
	// Hash returns a salted hash that embeds its own algorithm, cost and salt.
	Hash(password string) ([]byte, error)

	// Verify reports whether password matches hash. A malformed hash is a mismatch.
	Verify(password string, hash []byte) bool
}

// BcryptHasher implements PasswordHasher with bcrypt. Hashes produced at an
// older cost keep verifying after the cost is raised.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost for new hashes.
// Costs outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) ([]byte, error) {
	if len(password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return nil, oops.Code("AUTH_HASH_FAILED").With("cost", h.cost).Wrap(err)
	}
	return hash, nil
}

// Verify compares in constant time with respect to the stored digest.
// bcrypt reads only the first 72 bytes, so a longer password never matches;
// the comparison still runs to keep the cost the same.
func (h *BcryptHasher) Verify(password string, hash []byte) bool {
	match := bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
	return match && len(password) <= MaxPasswordBytes
}

// Cost returns the cost used for new hashes.
func (h *BcryptHasher) Cost() int {
	return h.cost
}
