package server

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextplay/nextplay-auth/internal/config"
	"github.com/nextplay/nextplay-auth/internal/logging"
	"github.com/nextplay/nextplay-auth/internal/routes"
)

func TestNewServesJSONErrors(t *testing.T) {
	srv, err := New(routes.Deps{
		Cfg:    config.Config{AppName: "Next Play API", AppEnv: "development", JWTSecret: "s", JWTExpiresIn: time.Hour},
		Logger: logging.Discard(),
	})
	require.NoError(t, err)

	resp, err := srv.App().Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = srv.App().Test(httptest.NewRequest(fiber.MethodGet, "/nope", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["error"])
}

func TestNewFailsWithoutStoreInProduction(t *testing.T) {
	_, err := New(routes.Deps{
		Cfg:    config.Config{AppEnv: "production", JWTSecret: "s", JWTExpiresIn: time.Hour},
		Logger: logging.Discard(),
	})
	require.Error(t, err)
}
