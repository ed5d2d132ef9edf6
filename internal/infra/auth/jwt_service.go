// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"kinwatch/config"
	"kinwatch/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	tokenTypeAccess  = "access"
	defaultAccessTTL = 15 * time.Minute
)

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	accessSecret []byte        // Secret key for signing access tokens.
	accessTTL    time.Duration // Time-to-live for access tokens.
	issuer       string
	now          func() time.Time
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.Auth == nil || cfg.Auth.AccessSecret == "" {
		return nil, errors.New("jwt access secret must be provided")
	}

	ttl := cfg.Auth.AccessTTL
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}

	return &jwtService{
		accessSecret: []byte(cfg.Auth.AccessSecret),
		accessTTL:    ttl,
		issuer:       cfg.Auth.Issuer,
		now:          time.Now,
	}, nil
}

// GenerateAccessToken creates a signed HS256 access token for a user and roles.
func (s *jwtService) GenerateAccessToken(userID uuid.UUID, roles []string) (string, error) {
	now := s.now()
	claims := &service.Claims{
		UserID: userID,
		Roles:  roles,
		Type:   tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.accessSecret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}

	return signed, nil
}

// ValidateToken parses and verifies an access token.
func (s *jwtService) ValidateToken(tokenString string) (*service.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &service.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.accessSecret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "invalid access token")
	}
	if !token.Valid || claims.Type != tokenTypeAccess || claims.UserID == uuid.Nil {
		return nil, errors.New("invalid access token claims")
	}

	return claims, nil
}

// GetAccessTokenDuration returns the configured duration for access tokens.
func (s *jwtService) GetAccessTokenDuration() time.Duration {
	return s.accessTTL
}
