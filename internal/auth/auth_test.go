package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong-pass"))
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateAccessToken(42, "renter@example.com", RoleRenter, "test-secret")
	require.NoError(t, err)

	claims, err := ValidateToken(token, "test-secret")
	require.NoError(t, err)

	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "renter@example.com", claims.Email)
	assert.Equal(t, RoleRenter, claims.Role)
	assert.Equal(t, "access", claims.TokenType)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(1, "a@b.c", RoleRenter, "secret-one")
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret-two")
	assert.Error(t, err)
}

func TestValidateToken_EmptySecret(t *testing.T) {
	_, err := GenerateAccessToken(1, "a@b.c", RoleRenter, "")
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)

	_, err = ValidateToken("whatever", "")
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)
}

func TestRefreshAccessToken(t *testing.T) {
	_, refreshToken, err := GenerateTokens(7, "m@example.com", RoleManager, "test-secret", "test-secret")
	require.NoError(t, err)

	newAccess, claims, err := RefreshAccessToken(refreshToken, "test-secret", "test-secret")
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.Equal(t, 7, claims.UserID)

	accessClaims, err := ValidateToken(newAccess, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "access", accessClaims.TokenType)
}

func TestRefreshAccessToken_RejectsAccessToken(t *testing.T) {
	accessToken, err := GenerateAccessToken(7, "m@example.com", RoleManager, "test-secret")
	require.NoError(t, err)

	_, _, err = RefreshAccessToken(accessToken, "test-secret", "test-secret")
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestTokenTTLs(t *testing.T) {
	assert.Less(t, AccessTokenTTL, RefreshTokenTTL)
	assert.Equal(t, 15*time.Minute, AccessTokenTTL)
}
