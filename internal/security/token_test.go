package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, 0, 0)

	tok, err := tm.GenerateAccessToken(7, "jane@example.com", "SPGOY73042HI", "alumni")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, int32(7), claims.AccountID)
	assert.Equal(t, "SPGOY73042HI", claims.AlumniID)
	assert.Equal(t, TokenTypeAccess, claims.Type)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager(testSecret, 0, 0)

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewTokenManager("ffffffffffffffffffffffffffffffff", 0, 0)
		tok, err := other.GenerateRefreshToken(1, "a@b.co")
		require.NoError(t, err)
		_, err = tm.ValidateToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		old := NewTokenManager(testSecret, time.Minute, 0).(*tokenManager)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		tok, err := old.GenerateAccessToken(1, "a@b.co", "", "admin")
		require.NoError(t, err)
		_, err = tm.ValidateToken(tok)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := tm.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
