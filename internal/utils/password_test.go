package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cretpass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cretpass", hash)

	assert.True(t, VerifyPassword(hash, "s3cretpass"))
	assert.False(t, VerifyPassword(hash, "wrongpass"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cretpass"))
}
