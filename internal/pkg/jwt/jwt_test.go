package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(7, "asha@ems.local", "USER", "jti-123", "secret", 15)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "asha@ems.local", claims.Email)
	assert.Equal(t, "USER", claims.Role)
	assert.Equal(t, "jti-123", claims.JTI())
}

func TestAccessToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(7, "asha@ems.local", "USER", "jti-123", "secret", 15)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccessToken_Expired(t *testing.T) {
	token, err := GenerateAccessToken(7, "asha@ems.local", "USER", "jti-123", "secret", -1)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "secret")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(7, "jti-456", "refresh-secret", 7)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token, "refresh-secret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "jti-456", claims.ID)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	access, err := GenerateAccessToken(7, "asha@ems.local", "USER", "jti-123", "secret", 15)
	require.NoError(t, err)

	// Signed with the access secret, so the refresh secret rejects it.
	_, err = ValidateRefreshToken(access, "refresh-secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_Garbage(t *testing.T) {
	_, err := ValidateAccessToken("not-a-jwt", "secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ValidateRefreshToken("not-a-jwt", "secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
