package auth

import (
	"net/http"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "marketplace/internal/errors"
)

const (
	// TokenCookie carries the signed session token.
	TokenCookie = "token"
	// IDCookie carries the plaintext user id. It is a display hint and never trusted.
	IDCookie = "id"

	identityKey = "identity"
)

// RequireAuth rejects requests without a valid session token with 401 and a JSON message.
func RequireAuth(creds *Credentials) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  identityKey,
		TokenLookup: "cookie:" + TokenCookie,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return creds.Verify(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			msg := apperrors.ErrInvalidToken.Message
			if !hasTokenCookie(c) {
				msg = apperrors.ErrMissingToken.Message
			}
			return c.JSON(http.StatusUnauthorized, echo.Map{"msg": msg})
		},
	})
}

// OptionalAuth attaches the identity when a valid token is present and lets
// anonymous requests through untouched.
func OptionalAuth(creds *Credentials) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:             identityKey,
		TokenLookup:            "cookie:" + TokenCookie,
		ContinueOnIgnoredError: true,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return creds.Verify(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return nil
		},
	})
}

// IdentityFrom returns the acting identity recovered from the verified token.
func IdentityFrom(c echo.Context) (uuid.UUID, bool) {
	claims, ok := c.Get(identityKey).(*Claims)
	if !ok || claims == nil {
		return uuid.Nil, false
	}
	id, err := claims.UserID()
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// ViewerFrom is IdentityFrom as an optional pointer.
func ViewerFrom(c echo.Context) *uuid.UUID {
	id, ok := IdentityFrom(c)
	if !ok {
		return nil
	}
	return &id
}

// ClaimsFrom returns the verified claims, if any.
func ClaimsFrom(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(identityKey).(*Claims)
	return claims, ok && claims != nil
}

func hasTokenCookie(c echo.Context) bool {
	cookie, err := c.Cookie(TokenCookie)
	return err == nil && cookie.Value != ""
}
