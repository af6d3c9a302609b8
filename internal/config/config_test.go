package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"PORT", "JWT_SECRET", "TOKEN_TTL", "LOG_LEVEL", "CATALOG_SEED",
	"RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW", "RATE_LIMIT_TRUST_PROXY", "WEBHOOK_WORKERS", "WEBHOOK_TIMEOUT",
	"WEBHOOK_RATE_PER_SEC", "METRICS_TOKEN", "AMQP_URL", "AMQP_QUEUE", "SHUTDOWN_TIMEOUT",
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
		check   func(t *testing.T, cfg Config)
	}{
		{
			name:    "missing JWT_SECRET",
			env:     map[string]string{},
			wantErr: "JWT_SECRET is required",
		},
		{
			name: "defaults",
			env:  map[string]string{"JWT_SECRET": "s"},
			check: func(t *testing.T, cfg Config) {
				if cfg.Addr() != ":3000" {
					t.Fatalf("want addr :3000, got %q", cfg.Addr())
				}
				if cfg.TokenTTL != time.Hour {
					t.Fatalf("want TokenTTL 1h, got %v", cfg.TokenTTL)
				}
				if !cfg.SeedCatalog {
					t.Fatalf("want SeedCatalog true")
				}
				if cfg.RateLimitMax != defaultRateLimitMax || cfg.RateLimitWindow != defaultRateLimitWindow {
					t.Fatalf("want rate limit %d/%v, got %d/%v", defaultRateLimitMax, defaultRateLimitWindow, cfg.RateLimitMax, cfg.RateLimitWindow)
				}
				if cfg.RateLimitTrustProxy {
					t.Fatalf("want RateLimitTrustProxy false by default")
				}
				if cfg.WebhookWorkers != defaultWebhookWorkers {
					t.Fatalf("want WebhookWorkers %d, got %d", defaultWebhookWorkers, cfg.WebhookWorkers)
				}
				if cfg.WebhookRatePerSec != 0 {
					t.Fatalf("want unlimited webhook rate, got %v", cfg.WebhookRatePerSec)
				}
				if cfg.AMQPQueue != defaultAMQPQueue {
					t.Fatalf("want AMQPQueue %q, got %q", defaultAMQPQueue, cfg.AMQPQueue)
				}
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"JWT_SECRET":             "s",
				"PORT":                   "9090",
				"CATALOG_SEED":           "false",
				"RATE_LIMIT_TRUST_PROXY": "true",
				"WEBHOOK_TIMEOUT":        "250ms",
				"WEBHOOK_RATE_PER_SEC":   "2.5",
			},
			check: func(t *testing.T, cfg Config) {
				if cfg.Addr() != ":9090" {
					t.Fatalf("want addr :9090, got %q", cfg.Addr())
				}
				if cfg.SeedCatalog {
					t.Fatalf("want SeedCatalog false")
				}
				if !cfg.RateLimitTrustProxy {
					t.Fatalf("want RateLimitTrustProxy true")
				}
				if cfg.WebhookTimeout != 250*time.Millisecond {
					t.Fatalf("want WebhookTimeout 250ms, got %v", cfg.WebhookTimeout)
				}
				if cfg.WebhookRatePerSec != 2.5 {
					t.Fatalf("want WebhookRatePerSec 2.5, got %v", cfg.WebhookRatePerSec)
				}
			},
		},
		{
			name:    "bad duration",
			env:     map[string]string{"JWT_SECRET": "s", "TOKEN_TTL": "soon"},
			wantErr: "TOKEN_TTL",
		},
		{
			name:    "zero workers",
			env:     map[string]string{"JWT_SECRET": "s", "WEBHOOK_WORKERS": "0"},
			wantErr: "WEBHOOK_WORKERS must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := FromEnv()
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("want error containing %q, got %q", tt.wantErr, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		if val, ok := os.LookupEnv(key); ok {
			t.Setenv(key, val)
		}
		os.Unsetenv(key)
	}
}
