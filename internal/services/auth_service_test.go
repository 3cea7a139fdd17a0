package services

import (
	"context"
	"testing"
	"time"

	"helpbridge/internal/domain/user"
	helpbridge_errors "helpbridge/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RoundTrip(t *testing.T) {
	svc := NewAuthService(testConfig())
	id := Identity{UserID: uuid.New(), Role: user.RoleHelper}

	token, err := svc.IssueAccessToken(id)
	require.NoError(t, err)

	got, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestAuthService_RejectsBadTokens(t *testing.T) {
	cfg := testConfig()
	svc := NewAuthService(cfg)
	sign := func(claims AccessClaims, method jwt.SigningMethod, key interface{}) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := jwt.RegisteredClaims{
		Issuer:    cfg.JWTIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", sign(AccessClaims{UserID: uuid.NewString(), Role: user.RoleReceiver, RegisteredClaims: valid}, jwt.SigningMethodHS256, []byte("other"))},
		{"expired", sign(AccessClaims{UserID: uuid.NewString(), Role: user.RoleReceiver, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: cfg.JWTIssuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}, jwt.SigningMethodHS256, []byte(cfg.JWTSecret))},
		{"wrong issuer", sign(AccessClaims{UserID: uuid.NewString(), Role: user.RoleReceiver, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "someone-else", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}, jwt.SigningMethodHS256, []byte(cfg.JWTSecret))},
		{"bad subject", sign(AccessClaims{UserID: "42", Role: user.RoleReceiver, RegisteredClaims: valid}, jwt.SigningMethodHS256, []byte(cfg.JWTSecret))},
		{"unknown role", sign(AccessClaims{UserID: uuid.NewString(), Role: "guest", RegisteredClaims: valid}, jwt.SigningMethodHS256, []byte(cfg.JWTSecret))},
		{"hs512", sign(AccessClaims{UserID: uuid.NewString(), Role: user.RoleReceiver, RegisteredClaims: valid}, jwt.SigningMethodHS512, []byte(cfg.JWTSecret))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ParseAccessToken(tt.token)
			assert.ErrorIs(t, err, helpbridge_errors.ErrUnauthorized)
		})
	}
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	id := Identity{UserID: uuid.New(), Role: user.RoleAdmin}
	ctx := WithIdentity(context.Background(), id)
	got, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, id, got)

	uid, ok := UserIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, id.UserID, uid)
}
