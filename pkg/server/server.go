package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/config"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/server/router"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Server is the lifecycle contract of the proxy's listeners.
type Server interface {
	Run() error
	Shutdown() error
}

type BaseServer struct {
	Config *config.Config
	Logger *logrus.Logger
	Router *fiber.App

	metricsOnce sync.Once
}

func NewBaseServer(cfg *config.Config, logger *logrus.Logger) *BaseServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReduceMemoryUsage:     true,
		Network:               fiber.NetworkTCP,
		BodyLimit:             cfg.Server.BodyLimit,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           120 * time.Second,
		Concurrency:           16384,
	})
	hardenListener(app)

	return &BaseServer{
		Config: cfg,
		Logger: logger,
		Router: app,
	}
}

// hardenListener applies the fasthttp settings fiber.Config does not expose.
func hardenListener(app *fiber.App) {
	srv := app.Server()
	srv.MaxConnsPerIP = 1024
	srv.ReadBufferSize = 8192
	srv.WriteBufferSize = 8192
	srv.NoDefaultServerHeader = true
	srv.NoDefaultDate = true
	srv.NoDefaultContentType = true
}

func (s *BaseServer) WithRouters(routers ...router.ServerRouter) error {
	for _, r := range routers {
		if err := r.BuildRoutes(s.Router); err != nil {
			s.Logger.WithError(err).Error("failed to build routes")
			return err
		}
	}
	return nil
}

// setupMetricsEndpoint serves promhttp on its own listener so scrapes
// never compete with chat traffic.
func (s *BaseServer) setupMetricsEndpoint() {
	if !s.Config.Metrics.Enabled {
		s.Logger.Info("prometheus metrics are disabled by configuration")
		return
	}

	s.metricsOnce.Do(func() {
		metricsApp := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})
		metricsApp.Use(recover.New())

		scrape := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		metricsApp.Get("/metrics", func(c *fiber.Ctx) error {
			scrape(c.Context())
			return nil
		})

		go s.serveMetrics(metricsApp)
	})
}

func (s *BaseServer) serveMetrics(app *fiber.App) {
	addr := fmt.Sprintf(":%d", s.Config.Server.MetricsPort)
	if err := app.Listen(addr); err != nil && !strings.Contains(err.Error(), "address already in use") {
		s.Logger.WithError(err).Error("metrics server failed")
	}
}
