package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	RateLimitStrategyMemory = "memory"
	RateLimitStrategyRedis  = "redis"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Origins   OriginsConfig   `mapstructure:"origins"`
	ClientIP  ClientIPConfig  `mapstructure:"client_ip"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	MetricsPort  int           `mapstructure:"metrics_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"`
}

type OriginsConfig struct {
	// Allowed lists the site origins admitted to the chat endpoint.
	// Matching is exact, scheme and port included.
	Allowed []string `mapstructure:"allowed"`
	// LoopbackMarker admits any origin containing it, so local frontends
	// work without editing the allow list.
	LoopbackMarker string `mapstructure:"loopback_marker"`
}

type ClientIPConfig struct {
	Header string `mapstructure:"header"`
}

type RateLimitConfig struct {
	Strategy string        `mapstructure:"strategy"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type UpstreamConfig struct {
	Endpoint         string           `mapstructure:"endpoint"`
	CredentialHeader string           `mapstructure:"credential_header"`
	Credential       string           `mapstructure:"credential"`
	Timeout          time.Duration    `mapstructure:"timeout"`
	MaxResponseBytes int              `mapstructure:"max_response_bytes"`
	Breaker          BreakerConfig    `mapstructure:"breaker"`
	Generation       GenerationConfig `mapstructure:"generation"`
}

type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures"`
	Cooldown    time.Duration `mapstructure:"cooldown"`
}

// GenerationConfig is owned by the proxy. Callers cannot override it.
type GenerationConfig struct {
	Temperature     float64 `mapstructure:"temperature"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	TopP            float64 `mapstructure:"top_p"`
	TopK            int     `mapstructure:"top_k"`
}

type ChatConfig struct {
	MaxMessageChars int `mapstructure:"max_message_chars"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads config.yaml from configPath (falling back to ./config and the
// working directory) and applies environment overrides. A missing file is
// not an error, the defaults plus environment variables still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("upstream.credential", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind credential env var: %w", err)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.body_limit", 1024*1024)

	v.SetDefault("origins.allowed", []string{})
	v.SetDefault("origins.loopback_marker", "localhost")

	v.SetDefault("client_ip.header", "X-Forwarded-For")

	v.SetDefault("rate_limit.strategy", RateLimitStrategyMemory)
	v.SetDefault("rate_limit.requests", 30)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("upstream.endpoint",
		"https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash-latest:generateContent")
	v.SetDefault("upstream.credential_header", "x-goog-api-key")
	v.SetDefault("upstream.timeout", 15*time.Second)
	v.SetDefault("upstream.max_response_bytes", 10*1024*1024)
	v.SetDefault("upstream.breaker.enabled", false)
	v.SetDefault("upstream.breaker.max_failures", 5)
	v.SetDefault("upstream.breaker.cooldown", 30*time.Second)
	v.SetDefault("upstream.generation.temperature", 0.7)
	v.SetDefault("upstream.generation.max_output_tokens", 256)
	v.SetDefault("upstream.generation.top_p", 0.95)
	v.SetDefault("upstream.generation.top_k", 40)

	v.SetDefault("chat.max_message_chars", 1000)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("logging.level", "info")
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive, got %d", c.Server.Port)
	}
	if len(c.Origins.Allowed) == 0 && c.Origins.LoopbackMarker == "" {
		return errors.New("at least one allowed origin or a loopback marker is required")
	}
	if c.RateLimit.Strategy != RateLimitStrategyMemory && c.RateLimit.Strategy != RateLimitStrategyRedis {
		return fmt.Errorf("unknown rate limit strategy %q", c.RateLimit.Strategy)
	}
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("rate limit requests must be positive, got %d", c.RateLimit.Requests)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %s", c.RateLimit.Window)
	}
	if c.Upstream.Endpoint == "" {
		return errors.New("upstream endpoint is required")
	}
	if c.Upstream.Credential == "" {
		return errors.New("upstream credential is required, set GEMINI_API_KEY")
	}
	if c.Chat.MaxMessageChars <= 0 {
		return fmt.Errorf("chat max_message_chars must be positive, got %d", c.Chat.MaxMessageChars)
	}
	return nil
}
