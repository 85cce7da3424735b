package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readinessTimeout = 2 * time.Second

// RegisterHealthRoutes adds the liveness endpoint and a readiness probe that
// pings the configured store and cache.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":    "OK",
			"message":   d.Cfg.AppName + " is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	app.Get("/health/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
		defer cancel()

		dbStatus := "memory"
		switch {
		case d.DB != nil:
			dbStatus = probe(d.DB.Ping(ctx))
		case d.SQLite != nil:
			dbStatus = probe(d.SQLite.PingContext(ctx))
		}
		redisStatus := "disabled"
		if d.Cache != nil {
			redisStatus = probe(d.Cache.Ping(ctx).Err())
		}

		status := http.StatusOK
		if !healthy(dbStatus) || !healthy(redisStatus) {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    fiber.Map{"database": dbStatus, "redis": redisStatus},
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}

func probe(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}

func healthy(status string) bool {
	switch status {
	case "ok", "memory", "disabled":
		return true
	default:
		return false
	}
}
