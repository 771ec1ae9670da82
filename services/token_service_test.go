package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	t.Run("Round Trip", func(t *testing.T) {
		tok, err := svc.GenerateToken("user-1", "admin")
		require.NoError(t, err)

		claims, err := svc.ValidateToken(tok)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims["userId"])
		assert.Equal(t, "admin", claims["role"])
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		tok, err := NewTokenService("other", time.Hour).GenerateToken("user-1", "user")
		require.NoError(t, err)

		_, err = svc.ValidateToken(tok)
		assert.EqualError(t, err, "invalid or expired token")
	})

	t.Run("Expired", func(t *testing.T) {
		old := NewTokenService("test-secret", time.Minute)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		tok, err := old.GenerateToken("user-1", "user")
		require.NoError(t, err)

		_, err = svc.ValidateToken(tok)
		assert.Error(t, err)
	})

	t.Run("Rejects None Algorithm", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": "x", "role": "admin"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(tok)
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}
