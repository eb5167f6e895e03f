package middleware

import (
	"strings"

	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/common"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/infra/prometheus"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	corsAllowMethods = "POST, OPTIONS"
	corsAllowHeaders = "Content-Type"
	corsMaxAge       = "86400"
)

type corsMiddleware struct {
	logger         *logrus.Logger
	allowedOrigins map[string]struct{}
	loopbackMarker string
}

// NewCORSMiddleware gates the chat endpoint by Origin. Preflights are
// answered for any origin so the browser surfaces the real verdict on the
// POST itself. Origins containing the loopback marker are admitted for
// local development.
func NewCORSMiddleware(logger *logrus.Logger, allowedOrigins []string, loopbackMarker string) Middleware {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originSet[origin] = struct{}{}
	}
	return &corsMiddleware{
		logger:         logger,
		allowedOrigins: originSet,
		loopbackMarker: loopbackMarker,
	}
}

func (m *corsMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodOptions:
			c.Set("Access-Control-Allow-Origin", "*")
			c.Set("Access-Control-Allow-Methods", corsAllowMethods)
			c.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			c.Set("Access-Control-Max-Age", corsMaxAge)
			return c.SendStatus(fiber.StatusNoContent)
		case fiber.MethodPost:
		default:
			c.Set("Access-Control-Allow-Origin", "*")
			return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
				"error": "Método não permitido",
			})
		}

		origin := c.Get("Origin")
		if !m.originAllowed(origin) {
			prometheus.OriginRejectedTotal.Inc()
			m.logger.WithFields(logrus.Fields{
				"origin": origin,
				"path":   c.Path(),
			}).Warn("request blocked by origin allow list")

			c.Set("Access-Control-Allow-Origin", "*")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Origem não permitida",
			})
		}

		c.Set("Vary", "Origin")
		c.Set("Access-Control-Allow-Origin", origin)
		c.Set("Access-Control-Allow-Methods", corsAllowMethods)
		c.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		c.Locals(common.OriginContextKey, origin)

		return c.Next()
	}
}

func (m *corsMiddleware) originAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	if _, ok := m.allowedOrigins[origin]; ok {
		return true
	}
	return m.loopbackMarker != "" && strings.Contains(origin, m.loopbackMarker)
}
