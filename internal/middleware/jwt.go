package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nextplay/nextplay-auth/internal/apperr"
	"github.com/nextplay/nextplay-auth/internal/auth"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireAuth gates a route on a valid "Authorization: Bearer <token>" header.
// The verified user id is attached to the request context (auth.UserIDFrom).
func RequireAuth(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if strings.TrimSpace(authz) == "" {
			return apperr.Auth(auth.TokenMissing.String())
		}
		// Exactly one space between scheme and token.
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") ||
			parts[1] == "" || strings.ContainsAny(parts[1], " \t") {
			return apperr.Auth(auth.TokenMalformed.String())
		}

		userID, err := tokens.Verify(parts[1])
		if err != nil {
			var tokErr *auth.TokenError
			if errors.As(err, &tokErr) {
				return apperr.Auth(tokErr.Error())
			}
			return apperr.Internal("failed to verify token", err)
		}

		c.SetUserContext(auth.WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}
