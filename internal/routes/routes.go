package routes

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nextplay/nextplay-auth/internal/auth"
	"github.com/nextplay/nextplay-auth/internal/config"
	"github.com/nextplay/nextplay-auth/internal/identity"
	"github.com/nextplay/nextplay-auth/internal/middleware"
)

// Deps aggregates shared dependencies required to wire routes. At most one of
// DB and SQLite is expected; with neither, Users must be set or the
// environment must be a development one.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	SQLite *sql.DB
	Cache  *redis.Client
	Logger *slog.Logger

	// Users overrides the repository derived from DB/SQLite.
	Users identity.Repository
	// Hasher overrides the production bcrypt hasher.
	Hasher auth.Hasher
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	users, err := userRepository(d)
	if err != nil {
		return err
	}

	// Middlewares
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	// Inside Audit so recovered panics are logged with their 500.
	app.Use(recover.New())
	app.Use(cors.New(corsConfig(d.Cfg)))

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	hasher := d.Hasher
	if hasher == nil {
		hasher = auth.NewBcryptHasher(auth.PasswordCost)
	}
	tokens := auth.NewTokenService([]byte(d.Cfg.JWTSecret), d.Cfg.JWTExpiresIn)
	authSvc := auth.NewService(users, tokens, hasher, d.Logger)
	authHandler := auth.NewHandler(authSvc)

	RegisterAuthRoutes(app, authHandler, AuthMiddleware{
		Gate:        middleware.RequireAuth(tokens),
		RateLimit:   middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit, d.Logger),
		Idempotency: middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
	})

	return nil
}

func userRepository(d Deps) (identity.Repository, error) {
	switch {
	case d.Users != nil:
		return d.Users, nil
	case d.DB != nil:
		return identity.NewPostgresRepository(d.DB), nil
	case d.SQLite != nil:
		return identity.NewSQLiteRepository(d.SQLite), nil
	case d.Cfg.IsDev():
		d.Logger.Warn("no database configured, users are kept in memory")
		return identity.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
}

func corsConfig(cfg config.Config) cors.Config {
	headers := strings.Join([]string{
		fiber.HeaderOrigin,
		fiber.HeaderContentType,
		fiber.HeaderAccept,
		fiber.HeaderAuthorization,
		"Idempotency-Key",
		middleware.RequestIDHeader,
	}, ", ")

	if cfg.FrontendURL == "" {
		return cors.Config{AllowOrigins: "*", AllowHeaders: headers}
	}
	return cors.Config{
		AllowOrigins:     strings.TrimRight(cfg.FrontendURL, "/"),
		AllowCredentials: true,
		AllowHeaders:     headers,
	}
}
