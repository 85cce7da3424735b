package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends selected from DATABASE_URL.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string        `env:"APP_NAME" envDefault:"Next Play API"`
	AppEnv         string        `env:"APP_ENV" envDefault:"development"`
	Port           string        `env:"PORT" envDefault:"3000"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	FrontendURL    string        `env:"FRONTEND_URL"`
	JWTSecret      string        `env:"JWT_SECRET,required,notEmpty"`
	JWTExpiresIn   time.Duration `env:"JWT_EXPIRES_IN" envDefault:"7d"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	RedisURL       string        `env:"REDIS_URL"`
	LoginRateLimit int           `env:"LOGIN_RATE_LIMIT" envDefault:"0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	ShutdownPeriod time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	var cfg Config
	opts := env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(time.Duration(0)): func(v string) (any, error) {
				return ParseDuration(v)
			},
		},
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if cfg.JWTExpiresIn <= 0 {
		return Config{}, fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}
	if cfg.LoginRateLimit < 0 {
		return Config{}, fmt.Errorf("LOGIN_RATE_LIMIT must not be negative")
	}
	if cfg.DatabaseURL == "" && !cfg.IsDev() {
		return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
	}
	if _, _, err := cfg.Store(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

var (
	unitDuration = regexp.MustCompile(`(?i)^(\d*\.?\d+) *([a-z]+)$`)

	day  = 24 * time.Hour
	year = time.Duration(365.25 * float64(day))

	durationUnits = map[string]time.Duration{
		"ms": time.Millisecond, "msec": time.Millisecond, "msecs": time.Millisecond,
		"millisecond": time.Millisecond, "milliseconds": time.Millisecond,
		"s": time.Second, "sec": time.Second, "secs": time.Second,
		"second": time.Second, "seconds": time.Second,
		"m": time.Minute, "min": time.Minute, "mins": time.Minute,
		"minute": time.Minute, "minutes": time.Minute,
		"h": time.Hour, "hr": time.Hour, "hrs": time.Hour,
		"hour": time.Hour, "hours": time.Hour,
		"d": day, "day": day, "days": day,
		"w": 7 * day, "week": 7 * day, "weeks": 7 * day,
		"y": year, "yr": year, "yrs": year, "year": year, "years": year,
	}
)

// ParseDuration accepts bare integers interpreted as seconds ("3600"), a
// number followed by a unit word or suffix ("7d", "2 hours", "1y") and Go
// duration strings ("1h30m").
func ParseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	if m := unitDuration.FindStringSubmatch(v); m != nil {
		if unit, ok := durationUnits[strings.ToLower(m[2])]; ok {
			n, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q", v)
			}
			return time.Duration(n * float64(unit)), nil
		}
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}

// Store reports which user store backend DATABASE_URL selects and the
// connection string to hand to it.
func (c Config) Store() (kind, dsn string, err error) {
	u := strings.TrimSpace(c.DatabaseURL)
	switch {
	case u == "":
		return StoreMemory, "", nil
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return StorePostgres, u, nil
	case strings.HasPrefix(u, "sqlite://"):
		return StoreSQLite, strings.TrimPrefix(u, "sqlite://"), nil
	case strings.HasPrefix(u, "file:"):
		return StoreSQLite, strings.TrimPrefix(u, "file:"), nil
	default:
		return "", "", fmt.Errorf("unsupported DATABASE_URL scheme")
	}
}

// IsDev reports whether the process runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
