package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	for _, pw := range []string{"pw1", "correct horse battery staple", "", "пароль"} {
		h1, err := HashPassword(pw, bcrypt.MinCost)
		require.NoError(t, err)
		h2, err := HashPassword(pw, bcrypt.MinCost)
		require.NoError(t, err)

		assert.NotEqual(t, h1, h2, "fresh salt per call")
		assert.True(t, VerifyPassword(h1, pw))
		assert.True(t, VerifyPassword(h2, pw))
		assert.False(t, VerifyPassword(h1, pw+"x"))
	}
}

func TestHashPasswordBadCost(t *testing.T) {
	h, err := HashPassword("pw", 99)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestVerifyPasswordCorruptHash(t *testing.T) {
	h, err := HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)

	assert.False(t, VerifyPassword("", "pw"))
	assert.False(t, VerifyPassword("not-a-hash", "pw"))
	assert.False(t, VerifyPassword(h[:len(h)-5], "pw"))
	assert.False(t, VerifyPassword("$2a$04$", "pw"))
}
