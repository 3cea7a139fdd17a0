package services

import (
	"context"
	"time"

	"helpbridge/config"
	"helpbridge/internal/domain/user"
	helpbridge_errors "helpbridge/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the authenticated caller as asserted by the identity provider.
type Identity struct {
	UserID uuid.UUID
	Role   user.Role
}

type AccessClaims struct {
	UserID string    `json:"sub"`
	Role   user.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService verifies access tokens minted by the external identity
// provider. Registration and login live there, not here.
type AuthService struct {
	jwtSecret []byte
	issuer    string
	accessTTL time.Duration
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		jwtSecret: []byte(cfg.JWTSecret),
		issuer:    cfg.JWTIssuer,
		accessTTL: 24 * time.Hour,
	}
}

func (s *AuthService) ParseAccessToken(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, helpbridge_errors.ErrUnauthorized
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, helpbridge_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	}, opts...)
	if err != nil {
		return Identity{}, helpbridge_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return Identity{}, helpbridge_errors.ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil || userID == uuid.Nil {
		return Identity{}, helpbridge_errors.ErrUnauthorized
	}
	if !claims.Role.Valid() {
		return Identity{}, helpbridge_errors.ErrUnauthorized
	}

	return Identity{UserID: userID, Role: claims.Role}, nil
}

// IssueAccessToken mints a token the way the identity provider does. It is
// used by the dev seeder and tests.
func (s *AuthService) IssueAccessToken(id Identity) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID: id.UserID.String(),
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

type ctxKey string

var identityKey ctxKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	value := ctx.Value(identityKey)
	if value == nil {
		return Identity{}, false
	}
	id, ok := value.(Identity)
	return id, ok
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return id.UserID, true
}
