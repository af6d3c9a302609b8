// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort            = "3000"
	defaultTokenTTL        = time.Hour
	defaultLogLevel        = "info"
	defaultRateLimitMax    = 100
	defaultRateLimitWindow = 15 * time.Minute
	defaultWebhookWorkers  = 8
	defaultWebhookTimeout  = 5 * time.Second
	defaultAMQPQueue       = "catalog.events"
	defaultShutdownTimeout = 10 * time.Second
)

type Config struct {
	Port      string
	JWTSecret string
	TokenTTL  time.Duration
	LogLevel  string

	SeedCatalog bool

	RateLimitMax        int
	RateLimitWindow     time.Duration
	RateLimitTrustProxy bool

	WebhookWorkers    int
	WebhookTimeout    time.Duration
	WebhookRatePerSec float64

	MetricsToken string

	AMQPURL   string
	AMQPQueue string

	ShutdownTimeout time.Duration
}

// Load reads an optional .env file from the working directory, then the
// process environment. Values already set in the environment win.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		Port:         getEnv("PORT", defaultPort),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		LogLevel:     getEnv("LOG_LEVEL", defaultLogLevel),
		MetricsToken: getEnv("METRICS_TOKEN", ""),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPQueue:    getEnv("AMQP_QUEUE", defaultAMQPQueue),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	var err error
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", defaultTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.SeedCatalog, err = boolEnv("CATALOG_SEED", true); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitMax, err = intEnv("RATE_LIMIT_MAX", defaultRateLimitMax); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitWindow, err = durationEnv("RATE_LIMIT_WINDOW", defaultRateLimitWindow); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitTrustProxy, err = boolEnv("RATE_LIMIT_TRUST_PROXY", false); err != nil {
		return Config{}, err
	}
	if cfg.WebhookWorkers, err = intEnv("WEBHOOK_WORKERS", defaultWebhookWorkers); err != nil {
		return Config{}, err
	}
	if cfg.WebhookTimeout, err = durationEnv("WEBHOOK_TIMEOUT", defaultWebhookTimeout); err != nil {
		return Config{}, err
	}
	if cfg.WebhookRatePerSec, err = floatEnv("WEBHOOK_RATE_PER_SEC", 0); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", defaultShutdownTimeout); err != nil {
		return Config{}, err
	}

	if cfg.WebhookWorkers < 1 {
		return Config{}, fmt.Errorf("WEBHOOK_WORKERS must be positive, got %d", cfg.WebhookWorkers)
	}

	return cfg, nil
}

func (c Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
