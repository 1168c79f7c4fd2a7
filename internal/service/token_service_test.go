package service

import (
	"testing"
	"time"

	"bank-card-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenService() *JWTTokenService {
	return NewJWTTokenService("test-secret-key", 5*time.Minute, 24*time.Hour, "bank-card-service")
}

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := newTokenService()

	token, expiresAt, err := svc.Generate("alice@example.com", domain.RoleUser)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 2*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, domain.RoleUser, claims.Roles)
}

func TestJWTTokenService_RefreshHasNoRoles(t *testing.T) {
	svc := newTokenService()

	token, err := svc.GenerateRefresh("alice@example.com")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Empty(t, claims.Roles)
}

func TestJWTTokenService_Validate_WrongSecret(t *testing.T) {
	svc := newTokenService()
	other := NewJWTTokenService("different-secret", 5*time.Minute, 24*time.Hour, "bank-card-service")

	token, _, err := svc.Generate("alice@example.com", domain.RoleUser)
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_Validate_Expired(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", -time.Minute, 24*time.Hour, "bank-card-service")

	token, _, err := svc.Generate("alice@example.com", domain.RoleUser)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_Validate_Garbage(t *testing.T) {
	svc := newTokenService()

	_, err := svc.Validate("not.a.token")
	assert.Error(t, err)
}
