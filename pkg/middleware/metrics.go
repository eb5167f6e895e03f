package middleware

import (
	"fmt"
	"time"

	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/common"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/infra/prometheus"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type metricsMiddleware struct {
	logger *logrus.Logger
}

func NewMetricsMiddleware(logger *logrus.Logger) Middleware {
	return &metricsMiddleware{logger: logger}
}

// Middleware records request counters and latency and emits one access log
// line per request. The client and origin fields are filled by the
// middlewares further down the chain before the handler runs.
func (m *metricsMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		startTime := time.Now()

		err := c.Next()

		elapsed := time.Since(startTime)
		statusCode := c.Response().StatusCode()

		prometheus.RequestTotal.WithLabelValues(c.Method(), m.getStatusClass(statusCode)).Inc()
		prometheus.RequestLatency.Observe(float64(elapsed.Milliseconds()))

		m.logger.WithFields(logrus.Fields{
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      statusCode,
			"duration_ms": elapsed.Milliseconds(),
			"client":      c.Locals(common.ClientKeyContextKey),
			"origin":      c.Locals(common.OriginContextKey),
			"request_id":  c.Locals(common.RequestIDContextKey),
		}).Info("request completed")

		return err
	}
}

func (m *metricsMiddleware) getStatusClass(statusCode int) string {
	if statusCode < 100 || statusCode > 599 {
		return "5xx"
	}
	return fmt.Sprintf("%dxx", statusCode/100)
}
