package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/config"
	handlers "github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/handlers/http"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/infra/gemini"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/infra/httpx"
	infraLogger "github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/infra/logger"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/middleware"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/ratelimit"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/server"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := infraLogger.NewLogger()

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	// rate limiter
	limiter := buildLimiter(cfg, logger)

	// upstream client
	httpClient := httpx.NewFastHTTPClient(
		httpx.WithTimeout(cfg.Upstream.Timeout),
		httpx.WithMaxResponseBodySize(cfg.Upstream.MaxResponseBytes),
	)
	var breaker httpx.CircuitBreaker
	if cfg.Upstream.Breaker.Enabled {
		breaker = httpx.NewCircuitBreaker("gemini", cfg.Upstream.Breaker.Cooldown, cfg.Upstream.Breaker.MaxFailures)
	}
	upstreamClient := gemini.NewClient(gemini.Config{
		Endpoint:         cfg.Upstream.Endpoint,
		CredentialHeader: cfg.Upstream.CredentialHeader,
		Credential:       cfg.Upstream.Credential,
		Timeout:          cfg.Upstream.Timeout,
		Generation: gemini.GenerationConfig{
			Temperature:     cfg.Upstream.Generation.Temperature,
			MaxOutputTokens: cfg.Upstream.Generation.MaxOutputTokens,
			TopP:            cfg.Upstream.Generation.TopP,
			TopK:            cfg.Upstream.Generation.TopK,
		},
	}, httpClient, breaker, logger)

	// middleware
	middlewareTransport := &middleware.Transport{
		PanicRecoverMiddleware: middleware.NewPanicRecoverMiddleware(logger),
		RequestIDMiddleware:    middleware.NewRequestIDMiddleware(nil),
		SecurityMiddleware:     middleware.NewSecurityMiddleware(),
		MetricsMiddleware:      middleware.NewMetricsMiddleware(logger),
		CORSMiddleware:         middleware.NewCORSMiddleware(logger, cfg.Origins.Allowed, cfg.Origins.LoopbackMarker),
		RateLimitMiddleware:    middleware.NewRateLimitMiddleware(logger, limiter, cfg.ClientIP.Header),
	}

	// Handler Transport
	handlerTransport := handlers.HandlerTransport{
		ChatHandler: handlers.NewChatHandler(handlers.ChatHandlerDeps{
			Logger:          logger,
			Upstream:        upstreamClient,
			MaxMessageChars: cfg.Chat.MaxMessageChars,
		}),
	}

	// Create and initialize the server
	srv := server.NewProxyServer(server.ProxyServerDI{
		Config:              cfg,
		Logger:              logger,
		MiddlewareTransport: middlewareTransport,
		HandlerTransport:    handlerTransport,
	})

	g, gctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return srv.Run()
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		select {
		case <-quit:
			fmt.Println("shutting down server...")
			return srv.Shutdown()
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}
	fmt.Println("server gracefully stopped")
}

func buildLimiter(cfg *config.Config, logger *logrus.Logger) ratelimit.Limiter {
	if cfg.RateLimit.Strategy == config.RateLimitStrategyRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logger.WithField("addr", client.Options().Addr).Info("using redis rate limit store")
		return ratelimit.NewRedisFixedWindowLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.Window, nil)
	}
	return ratelimit.NewFixedWindowLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, nil)
}
