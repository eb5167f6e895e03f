package router

import (
	"net/http"
	"time"

	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/config"
	handlers "github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/handlers/http"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

const (
	ChatPath   = "/"
	HealthPath = "/health"
	PingPath   = "/__/ping"
)

type proxyRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    handlers.HandlerTransport
	config              *config.Config
}

func NewProxyRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport handlers.HandlerTransport,
	cfg *config.Config,
) ServerRouter {
	return &proxyRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
		config:              cfg,
	}
}

// BuildRoutes wires the chat pipeline. The health endpoints are registered
// ahead of the middleware chain so probes bypass origin and rate checks.
// Every other path funnels into the chat handler, mirroring the single
// logical endpoint the frontend calls.
func (r *proxyRouter) BuildRoutes(router *fiber.App) error {
	if r.handlerTransport.ChatHandler == nil {
		return ErrInvalidHandlerTransport
	}
	if r.middlewareTransport == nil {
		return ErrInvalidMiddlewareTransport
	}

	middlewares := []middleware.Middleware{
		r.middlewareTransport.PanicRecoverMiddleware,
		r.middlewareTransport.RequestIDMiddleware,
		r.middlewareTransport.SecurityMiddleware,
		r.middlewareTransport.MetricsMiddleware,
		r.middlewareTransport.CORSMiddleware,
		r.middlewareTransport.RateLimitMiddleware,
	}
	for _, mw := range middlewares {
		if mw == nil {
			return ErrInvalidMiddlewareTransport
		}
	}

	router.Get(HealthPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.Get(PingPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{
			"message": "pong",
		})
	})

	for _, mw := range middlewares {
		router.Use(mw.Middleware())
	}

	router.Use(r.handlerTransport.ChatHandler.Handle)

	return nil
}
