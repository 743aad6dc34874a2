package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParseJWT(t *testing.T) {
	token, err := SignJWT("sekrit", "user-123", "hirer", 60)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseJWT("sekrit", token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "hirer", claims.Role)
}

func TestParseJWTWrongSecret(t *testing.T) {
	token, err := SignJWT("sekrit", "user-123", "hirer", 60)
	require.NoError(t, err)

	_, err = ParseJWT("other-secret", token)
	require.Error(t, err)
}

func TestParseJWTExpired(t *testing.T) {
	token, err := SignJWT("sekrit", "user-123", "hirer", -5)
	require.NoError(t, err)

	_, err = ParseJWT("sekrit", token)
	require.Error(t, err)
}
