package middleware

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/common"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/infra/prometheus"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type rateLimitMiddleware struct {
	logger   *logrus.Logger
	limiter  ratelimit.Limiter
	ipHeader string
}

// NewRateLimitMiddleware enforces the per-client request budget. The
// client is identified by ipHeader, which the fronting proxy must inject;
// requests arriving without it share the anonymous bucket. A failing
// limiter store admits the request rather than taking the endpoint down.
func NewRateLimitMiddleware(logger *logrus.Logger, limiter ratelimit.Limiter, ipHeader string) Middleware {
	return &rateLimitMiddleware{
		logger:   logger,
		limiter:  limiter,
		ipHeader: ipHeader,
	}
}

func (m *rateLimitMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientKey := m.clientKey(c)
		c.Locals(common.ClientKeyContextKey, clientKey)

		decision, err := m.limiter.Allow(c.UserContext(), clientKey)
		if err != nil {
			m.logger.WithError(err).
				WithField("client", clientKey).
				Warn("rate limit store unavailable, admitting request")
			return c.Next()
		}

		c.Set(common.RateLimitLimitHeader, strconv.Itoa(decision.Limit))
		c.Set(common.RateLimitRemainingHeader, strconv.Itoa(decision.Remaining))
		c.Set(common.RateLimitResetHeader, strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set(common.RetryAfterHeader, strconv.Itoa(retryAfter))

			prometheus.RateLimitedTotal.Inc()
			m.logger.WithFields(logrus.Fields{
				"client":      clientKey,
				"retry_after": retryAfter,
			}).Warn("request rejected by rate limiter")

			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "Limite de requisições excedido",
				"message": fmt.Sprintf("Aguarde %ds antes de enviar novas mensagens.", retryAfter),
			})
		}

		return c.Next()
	}
}

// clientKey reads the caller address from the configured header. The
// header may carry the full forwarding chain, the first entry is the
// caller.
func (m *rateLimitMiddleware) clientKey(c *fiber.Ctx) string {
	value := strings.TrimSpace(c.Get(m.ipHeader))
	if value == "" {
		return common.AnonymousClientKey
	}
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	return value
}
