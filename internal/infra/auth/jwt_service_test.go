package auth

import (
	"testing"
	"time"

	"kinwatch/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *config.Config {
	return &config.Config{
		Auth: &config.AuthConfig{
			AccessSecret: "test_access_secret_key_very_long_for_testing",
			AccessTTL:    time.Minute,
			Issuer:       "kinwatch-test",
		},
	}
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	tokenSvc, err := NewJWTService(newTestConfig())
	require.NoError(t, err)

	userID := uuid.New()
	token, err := tokenSvc.GenerateAccessToken(userID, []string{"safety_admin"})
	require.NoError(t, err)

	claims, err := tokenSvc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.True(t, claims.HasRole("safety_admin"))
	assert.False(t, claims.HasRole("guardian"))
	assert.Equal(t, "kinwatch-test", claims.Issuer)
	assert.Equal(t, time.Minute, tokenSvc.GetAccessTokenDuration())
}

func TestJWTService_Rejects(t *testing.T) {
	cfg := newTestConfig()
	tokenSvc, err := NewJWTService(cfg)
	require.NoError(t, err)
	svc := tokenSvc.(*jwtService)

	t.Run("expired", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(uuid.New(), nil)
		require.NoError(t, err)

		svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		defer func() { svc.now = time.Now }()

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := newTestConfig()
		other.Auth.AccessSecret = "another_secret_key_that_is_long_enough"
		otherSvc, err := NewJWTService(other)
		require.NoError(t, err)
		token, err := otherSvc.GenerateAccessToken(uuid.New(), nil)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := newTestConfig()
		other.Auth.Issuer = "someone-else"
		otherSvc, err := NewJWTService(other)
		require.NoError(t, err)
		token, err := otherSvc.GenerateAccessToken(uuid.New(), nil)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"uid": uuid.NewString()}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(&config.Config{})
	assert.Error(t, err)
}
