package identity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopcast/loopcast/internal/identity"
)

func TestTokenService_GenerateAndValidate(t *testing.T) {
	svc := identity.NewTokenService(identity.TokenConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.loopcast.io",
		Audience:   "loopcast-api",
	})

	token, expiresAt, err := svc.Generate("op_test123", identity.RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "op_test123", claims.OperatorID)
	assert.Equal(t, "op_test123", claims.Subject)
	assert.Equal(t, "https://api.loopcast.io", claims.Issuer)
	assert.True(t, claims.IsAdmin())
}

func TestTokenService_ViewerIsNotAdmin(t *testing.T) {
	svc := identity.NewTokenService(identity.TokenConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.loopcast.io",
		Audience:   "loopcast-api",
	})

	token, _, err := svc.Generate("op_test123", identity.RoleViewer)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin())
}

func TestTokenService_InvalidToken(t *testing.T) {
	svc := identity.NewTokenService(identity.TokenConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.loopcast.io",
		Audience:   "loopcast-api",
	})

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestTokenService_WrongSigningKey(t *testing.T) {
	svc1 := identity.NewTokenService(identity.TokenConfig{
		SigningKey: "key-one",
		Issuer:     "https://api.loopcast.io",
		Audience:   "loopcast-api",
	})

	token, _, err := svc1.Generate("op_test123", identity.RoleAdmin)
	require.NoError(t, err)

	svc2 := identity.NewTokenService(identity.TokenConfig{
		SigningKey: "key-two",
		Issuer:     "https://api.loopcast.io",
		Audience:   "loopcast-api",
	})

	_, err = svc2.Validate(token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestTokenService_WrongIssuer(t *testing.T) {
	svc1 := identity.NewTokenService(identity.TokenConfig{
		SigningKey: "test-key",
		Issuer:     "issuer-one",
		Audience:   "loopcast-api",
	})

	token, _, err := svc1.Generate("op_test123", identity.RoleAdmin)
	require.NoError(t, err)

	svc2 := identity.NewTokenService(identity.TokenConfig{
		SigningKey: "test-key",
		Issuer:     "issuer-two",
		Audience:   "loopcast-api",
	})

	_, err = svc2.Validate(token)
	assert.Error(t, err)
}

func TestTokenService_WrongAudience(t *testing.T) {
	svc1 := identity.NewTokenService(identity.TokenConfig{
		SigningKey: "test-key",
		Issuer:     "https://api.loopcast.io",
		Audience:   "audience-one",
	})

	token, _, err := svc1.Generate("op_test123", identity.RoleAdmin)
	require.NoError(t, err)

	svc2 := identity.NewTokenService(identity.TokenConfig{
		SigningKey: "test-key",
		Issuer:     "https://api.loopcast.io",
		Audience:   "audience-two",
	})

	_, err = svc2.Validate(token)
	assert.Error(t, err)
}
