package middleware

import (
	"context"

	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type requestIDMiddleware struct {
	uuidProvider func() uuid.UUID
}

type RequestIDOpts struct {
	UuidProvider func() uuid.UUID
}

// NewRequestIDMiddleware tags every request with an identifier, honoring
// one already set by the fronting proxy, and threads it through the user
// context for log correlation.
func NewRequestIDMiddleware(opts *RequestIDOpts) Middleware {
	uuidProvider := uuid.New
	if opts != nil && opts.UuidProvider != nil {
		uuidProvider = opts.UuidProvider
	}
	return &requestIDMiddleware{uuidProvider: uuidProvider}
}

func (m *requestIDMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(common.RequestIDHeader)
		if id == "" {
			id = m.uuidProvider().String()
		}

		c.Locals(common.RequestIDContextKey, id)
		c.Set(common.RequestIDHeader, id)
		c.SetUserContext(context.WithValue(c.Context(), common.RequestIDContextKey, id))

		return c.Next()
	}
}
