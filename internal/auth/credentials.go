package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "marketplace/internal/errors"
)

// Credentials issues and verifies session tokens, honouring the revocation list.
type Credentials struct {
	jwt    *JWTService
	tokens TokenStoreInterface
}

// NewCredentials combines the JWT service with a token store.
func NewCredentials(jwtService *JWTService, tokens TokenStoreInterface) *Credentials {
	return &Credentials{jwt: jwtService, tokens: tokens}
}

// TTL returns the session token lifetime.
func (c *Credentials) TTL() time.Duration {
	return c.jwt.TTL()
}

// Issue signs a new session token for userID.
func (c *Credentials) Issue(userID uuid.UUID) (string, error) {
	token, err := c.jwt.IssueToken(userID)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks signature, expiry and revocation.
func (c *Credentials) Verify(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, apperrors.ErrMissingToken
	}
	claims, err := c.jwt.VerifyToken(token)
	if err != nil {
		return nil, apperrors.ErrInvalidToken.Wrap(err)
	}
	if c.tokens != nil {
		revoked, _ := c.tokens.IsRevoked(ctx, claims.ID)
		if revoked {
			return nil, apperrors.ErrInvalidToken
		}
	}
	return claims, nil
}

// Revoke invalidates token for the rest of its lifetime. Unverifiable tokens are ignored.
func (c *Credentials) Revoke(ctx context.Context, token string) error {
	if c.tokens == nil || token == "" {
		return nil
	}
	claims, err := c.jwt.VerifyToken(token)
	if err != nil {
		return nil
	}
	return c.tokens.Revoke(ctx, claims.ID, claims.RemainingTTL(time.Now()))
}
