package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nextplay/nextplay-auth/internal/auth"
)

// AuthMiddleware groups the per-route middleware of the /auth endpoints.
// Nil entries are skipped.
type AuthMiddleware struct {
	Gate        fiber.Handler
	RateLimit   fiber.Handler
	Idempotency fiber.Handler
}

// RegisterAuthRoutes wires authentication endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, mw AuthMiddleware) {
	group := r.Group("/auth")
	group.Post("/register", chain(h.Register, mw.Idempotency)...)
	group.Post("/login", chain(h.Login, mw.RateLimit)...)
	group.Get("/me", chain(h.Me, mw.Gate)...)
}

func chain(final fiber.Handler, before ...fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(before)+1)
	for _, h := range before {
		if h != nil {
			handlers = append(handlers, h)
		}
	}
	return append(handlers, final)
}
