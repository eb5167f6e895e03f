package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicRecoverMiddleware_ConvertsPanicToGenericError(t *testing.T) {
	app := fiber.New()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	app.Use(middleware.NewPanicRecoverMiddleware(logger).Middleware())
	app.Post("/", func(c *fiber.Ctx) error {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "Erro interno do servidor", payload["error"])
}

func TestPanicRecoverMiddleware_PassesThroughNormalResponses(t *testing.T) {
	app := fiber.New()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	app.Use(middleware.NewPanicRecoverMiddleware(logger).Middleware())
	app.Post("/", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}
