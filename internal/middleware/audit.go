package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nextplay/nextplay-auth/internal/auth"
)

// Audit emits one structured log line per request. It runs after the error
// handler has written the response, so status reflects what the client saw.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Let the app's error handler render the response before we read the status.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("duration", time.Since(start)),
		}
		if reqID := RequestIDFrom(c); reqID != "" {
			attrs = append(attrs, slog.String("request_id", reqID))
		}
		if uid, ok := auth.UserIDFrom(c.UserContext()); ok {
			attrs = append(attrs, slog.String("user_id", uid))
		}

		if c.Response().StatusCode() >= fiber.StatusInternalServerError {
			logger.Error("request completed", attrs...)
			return nil
		}
		logger.Info("request completed", attrs...)
		return nil
	}
}
