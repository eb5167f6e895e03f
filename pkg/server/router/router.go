package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrInvalidHandlerTransport    = errors.New("invalid handler transport")
	ErrInvalidMiddlewareTransport = errors.New("invalid middleware transport")
)

type ServerRouter interface {
	BuildRoutes(router *fiber.App) error
}
