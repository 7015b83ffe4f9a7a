package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	salt, err := h.GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, salt, 64, "32 random bytes hex-encoded")

	hash, err := h.Hash(salt, "correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, h.Compare(hash, salt, "correct horse battery staple"))
	assert.Error(t, h.Compare(hash, salt, "wrong password"))
	assert.Error(t, h.Compare(hash, "other-salt", "correct horse battery staple"))
}

func TestBcryptHasher_SaltsAreUnique(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	a, err := h.GenerateSalt()
	require.NoError(t, err)
	b, err := h.GenerateSalt()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBcryptHasher_LongPassword(t *testing.T) {
	// The sha256 preimage keeps input under bcrypt's 72-byte limit, so
	// passwords longer than that must still round-trip.
	h := NewBcryptHasher(bcrypt.MinCost)
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	salt, err := h.GenerateSalt()
	require.NoError(t, err)
	hash, err := h.Hash(salt, string(long))
	require.NoError(t, err)
	assert.NoError(t, h.Compare(hash, salt, string(long)))
}
