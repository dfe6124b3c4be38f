package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	generator, err := NewJWTGenerator(JWTGeneratorConfig{
		SecretKey: "test-secret",
		Issuer:    "mgmtapi",
	})
	require.NoError(t, err)

	token, err := generator.GenerateToken("u-1", "user@example.com", []string{"admin"})
	require.NoError(t, err)

	validator, err := NewJWTValidator(JWTConfig{
		SecretKey: "test-secret",
		Issuer:    "mgmtapi",
	})
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, []string{"admin"}, claims.Roles)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	generator, err := NewJWTGenerator(JWTGeneratorConfig{SecretKey: "secret-a", Issuer: "mgmtapi"})
	require.NoError(t, err)
	token, err := generator.GenerateToken("u-1", "", nil)
	require.NoError(t, err)

	validator, err := NewJWTValidator(JWTConfig{SecretKey: "secret-b", Issuer: "mgmtapi"})
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	generator, err := NewJWTGenerator(JWTGeneratorConfig{
		SecretKey:  "test-secret",
		Issuer:     "mgmtapi",
		ExpiryTime: -time.Minute,
	})
	require.NoError(t, err)
	token, err := generator.GenerateToken("u-1", "", nil)
	require.NoError(t, err)

	validator, err := NewJWTValidator(JWTConfig{SecretKey: "test-secret", Issuer: "mgmtapi"})
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTRejectsGarbage(t *testing.T) {
	validator, err := NewJWTValidator(JWTConfig{SecretKey: "test-secret", Issuer: "mgmtapi"})
	require.NoError(t, err)

	_, err = validator.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidatorRequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{})
	assert.Error(t, err)
}

func TestUserContextRoundTrip(t *testing.T) {
	user := &UserContext{UserID: "u-1", Roles: []string{"admin"}}
	ctx := SetUserInContext(context.Background(), user)

	got, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	_, err = GetUserFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoUserInContext)
}

func TestSlidingWindowLimiter(t *testing.T) {
	limiter := NewSlidingWindowLimiter(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Other keys are unaffected.
	allowed, err = limiter.Allow(ctx, "other")
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "k"))
	allowed, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
}
