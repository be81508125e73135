package config

import (
	"errors"
	"testing"

	"github.com/TimurManjosov/goexperiments/internal/configure"
)

func TestLoad_DefaultValues(t *testing.T) {
	// Clear any environment variables to test defaults
	for _, key := range []string{
		"APP_ENV", "APP_HTTP_ADDR", "STORE_TYPE", "DB_DSN", "GATE_HOST", "CONFIGURE_MODE",
		"ADMIN_API_KEY", "ADMIN_API_KEY_HASHES", "RATE_LIMIT_PER_IP", "LOG_LEVEL", "LOG_FORMAT", "WATCH_FILE",
		"WEBHOOK_URLS", "WEBHOOK_SECRET",
	} {
		unsetenv(t, key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AppEnv != "dev" {
		t.Errorf("Expected AppEnv='dev', got '%s'", cfg.AppEnv)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected HTTPAddr=':8080', got '%s'", cfg.HTTPAddr)
	}
	if cfg.StoreType != "memory" {
		t.Errorf("Expected StoreType='memory', got '%s'", cfg.StoreType)
	}
	if cfg.GateHost != "experiments" {
		t.Errorf("Expected GateHost='experiments', got '%s'", cfg.GateHost)
	}
	if cfg.ConfigureMode != "typed" {
		t.Errorf("Expected ConfigureMode='typed', got '%s'", cfg.ConfigureMode)
	}
	if cfg.RateLimitPerIP != 100 {
		t.Errorf("Expected RateLimitPerIP=100, got %d", cfg.RateLimitPerIP)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "console" {
		t.Errorf("Unexpected log settings: %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
	if len(cfg.WebhookURLs) != 0 {
		t.Errorf("Expected no webhooks by default, got %v", cfg.WebhookURLs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_HTTP_ADDR", ":9999")
	t.Setenv("STORE_TYPE", "sqlite")
	t.Setenv("DB_DSN", "/var/lib/experiments.db")
	t.Setenv("GATE_HOST", "staging")
	t.Setenv("CONFIGURE_MODE", "boolean")
	t.Setenv("RATE_LIMIT_PER_IP", "200")
	t.Setenv("WATCH_FILE", "/etc/experiments.cmds")
	t.Setenv("WEBHOOK_URLS", "https://a.example/hook, ,http://b.example/hook")
	t.Setenv("WEBHOOK_SECRET", "whsec")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.HTTPAddr != ":9999" {
		t.Errorf("Expected HTTPAddr=':9999', got '%s'", cfg.HTTPAddr)
	}
	if cfg.StoreType != "sqlite" || cfg.DatabaseDSN != "/var/lib/experiments.db" {
		t.Errorf("Unexpected store settings: %s %s", cfg.StoreType, cfg.DatabaseDSN)
	}
	if cfg.GateHost != "staging" {
		t.Errorf("Expected GateHost='staging', got '%s'", cfg.GateHost)
	}
	if cfg.RateLimitPerIP != 200 {
		t.Errorf("Expected RateLimitPerIP=200, got %d", cfg.RateLimitPerIP)
	}
	if cfg.WatchFile != "/etc/experiments.cmds" {
		t.Errorf("Expected WatchFile override, got '%s'", cfg.WatchFile)
	}

	if len(cfg.WebhookURLs) != 2 || cfg.WebhookURLs[1] != "http://b.example/hook" {
		t.Errorf("Expected two webhook URLs, got %v", cfg.WebhookURLs)
	}
	if cfg.WebhookSecret != "whsec" {
		t.Errorf("Expected WebhookSecret override, got '%s'", cfg.WebhookSecret)
	}

	mode, err := cfg.Mode()
	if err != nil || mode != configure.ModeBoolean {
		t.Errorf("Expected boolean mode, got %v (%v)", mode, err)
	}
}

// A well-formed cost-4 bcrypt hash; only its shape is checked.
const testHash = "$2a$04$1b7H3c1WZ4UuPPnEw1xH1OQ6y8xI/6zCvP3m0Bq7dM7Y3bYdPz7W6"

func validConfig() Config {
	return Config{
		AppEnv:         "dev",
		HTTPAddr:       ":8080",
		StoreType:      "memory",
		GateHost:       "experiments",
		ConfigureMode:  "typed",
		AdminAPIKey:    "admin-123",
		RateLimitPerIP: 100,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown store", func(c *Config) { c.StoreType = "redis" }, "STORE_TYPE"},
		{"postgres without dsn", func(c *Config) { c.StoreType = "postgres" }, "DB_DSN"},
		{"sqlite without path", func(c *Config) { c.StoreType = "sqlite" }, "DB_DSN"},
		{"sqlite with path", func(c *Config) { c.StoreType = "sqlite"; c.DatabaseDSN = "x.db" }, ""},
		{"empty http addr", func(c *Config) { c.HTTPAddr = "" }, "APP_HTTP_ADDR"},
		{"empty gate host", func(c *Config) { c.GateHost = "" }, "GATE_HOST"},
		{"bad mode", func(c *Config) { c.ConfigureMode = "strict" }, "CONFIGURE_MODE"},
		{"zero rate limit", func(c *Config) { c.RateLimitPerIP = 0 }, "RATE_LIMIT_PER_IP"},
		{"webhook url", func(c *Config) { c.WebhookURLs = []string{"https://hooks.example/x"} }, ""},
		{"relative webhook url", func(c *Config) { c.WebhookURLs = []string{"/hook"} }, "WEBHOOK_URLS"},
		{"non-http webhook url", func(c *Config) { c.WebhookURLs = []string{"ftp://hooks.example/x"} }, "WEBHOOK_URLS"},
		{"bcrypt hash", func(c *Config) { c.AdminKeyHashes = []string{testHash} }, ""},
		{"plain key as hash", func(c *Config) { c.AdminKeyHashes = []string{"s3cret"} }, "ADMIN_API_KEY_HASHES"},
		{"default key in prod", func(c *Config) { c.AppEnv = "prod" }, "ADMIN_API_KEY"},
		{"custom key in prod", func(c *Config) { c.AppEnv = "production"; c.AdminAPIKey = "s3cret" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.field == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
}
