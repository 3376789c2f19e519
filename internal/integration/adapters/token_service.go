package adapters

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cashback-engine/backend/internal/application/adapter"
	domainerror "github.com/cashback-engine/backend/internal/domain/error"
)

// serviceTokenClaims are the JWT claims carried by caller service tokens.
type serviceTokenClaims struct {
	Service string `json:"service"`
	jwt.RegisteredClaims
}

// tokenService implements the adapter.TokenService interface.
type tokenService struct {
	secret []byte
}

// NewTokenService creates a new token service instance.
func NewTokenService(secret string) adapter.TokenService {
	return &tokenService{
		secret: []byte(secret),
	}
}

// ValidateServiceToken validates a bearer token and returns its claims.
func (s *tokenService) ValidateServiceToken(_ context.Context, tokenString string) (*adapter.TokenClaims, error) {
	claims := &serviceTokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domainerror.ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domainerror.NewAuthError(
				domainerror.ErrCodeExpiredToken,
				"service token expired",
				domainerror.ErrExpiredToken,
			)
		}
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeInvalidToken,
			"invalid service token",
			domainerror.ErrInvalidToken,
		)
	}

	if !token.Valid || claims.Service == "" {
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeInvalidToken,
			"invalid service token",
			domainerror.ErrInvalidToken,
		)
	}

	result := &adapter.TokenClaims{
		Service: claims.Service,
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}
