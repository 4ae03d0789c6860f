package auth_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/shadow-oauth/internal/auth"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	hasher := auth.NewBcryptPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, hasher.Verify(hash, "s3cret"))
	assert.ErrorIs(t, hasher.Verify(hash, "wrong"), bcrypt.ErrMismatchedHashAndPassword)

	t.Run("TestTooLongSecret", func(t *testing.T) {
		tooLong := make([]byte, 73)
		_, _ = rand.Read(tooLong)

		_, err := hasher.Hash(string(tooLong))
		assert.Error(t, err)
	})
}

func TestDefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, auth.NewBcryptPasswordHasher(0).Cost)
}
