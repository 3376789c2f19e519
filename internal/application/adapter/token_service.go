// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"
	"time"
)

// TokenClaims represents the claims contained in a service JWT token.
type TokenClaims struct {
	Service   string
	ExpiresAt time.Time
}

// TokenService defines the interface for service-token operations. The engine
// is called by other backend services, not end users; tokens identify the
// calling service.
type TokenService interface {
	// ValidateServiceToken validates a bearer token and returns its claims.
	ValidateServiceToken(ctx context.Context, token string) (*TokenClaims, error)
}
