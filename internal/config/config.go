// Package config provides application configuration loading from environment variables and .env files.
// It uses viper for flexible configuration management with sensible defaults.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"

	"github.com/TimurManjosov/goexperiments/internal/auth"
	"github.com/TimurManjosov/goexperiments/internal/configure"
	"github.com/TimurManjosov/goexperiments/internal/kv"
	"github.com/TimurManjosov/goexperiments/internal/logging"
)

// Config holds all application configuration loaded from environment variables or .env file.
// Configuration priority: environment variables > .env file > defaults.
type Config struct {
	AppEnv         string // Application environment (dev, staging, prod)
	HTTPAddr       string // HTTP server bind address (e.g., ":8080")
	StoreType      string // Storage backend type (memory, postgres or sqlite)
	DatabaseDSN    string // PostgreSQL connection string or SQLite file path
	GateHost       string // Host a configure command must carry
	ConfigureMode  string // Value handling for configure commands (typed or boolean)
	AdminAPIKey    string // Admin API key for write operations
	AdminKeyHashes []string // bcrypt hashes of further admin keys (comma-separated)
	RateLimitPerIP int    // Requests per minute per IP on write routes
	LogLevel       string // zerolog level (debug, info, warn, error)
	LogFormat      string // console or json
	WatchFile      string   // Optional file of command strings to apply on change
	WebhookURLs    []string // Endpoints notified after every change (comma-separated)
	WebhookSecret  string   // HMAC secret for webhook signatures; empty sends unsigned
}

const defaultAdminAPIKey = "admin-123"

// Load reads configuration from environment variables and .env file (if present).
// Environment variables take precedence over .env file values.
// Use Validate to check the result before use.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env") // Optional; silently ignored if file doesn't exist
	_ = v.ReadInConfig()    // Ignore error - .env is optional
	v.AutomaticEnv()

	setConfigDefaults(v)

	return &Config{
		AppEnv:         v.GetString("APP_ENV"),
		HTTPAddr:       v.GetString("APP_HTTP_ADDR"),
		StoreType:      v.GetString("STORE_TYPE"),
		DatabaseDSN:    v.GetString("DB_DSN"),
		GateHost:       v.GetString("GATE_HOST"),
		ConfigureMode:  v.GetString("CONFIGURE_MODE"),
		AdminAPIKey:    v.GetString("ADMIN_API_KEY"),
		AdminKeyHashes: splitList(v.GetString("ADMIN_API_KEY_HASHES")),
		RateLimitPerIP: v.GetInt("RATE_LIMIT_PER_IP"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		WatchFile:      v.GetString("WATCH_FILE"),
		WebhookURLs:    splitList(v.GetString("WEBHOOK_URLS")),
		WebhookSecret:  v.GetString("WEBHOOK_SECRET"),
	}, nil
}

// setConfigDefaults sets default values for all configuration options.
// These defaults are suitable for local development but should be overridden in production.
func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_HTTP_ADDR", ":8080")
	v.SetDefault("STORE_TYPE", kv.TypeMemory)
	v.SetDefault("DB_DSN", "")
	v.SetDefault("GATE_HOST", configure.DefaultGateHost)
	v.SetDefault("CONFIGURE_MODE", "typed")
	v.SetDefault("ADMIN_API_KEY", defaultAdminAPIKey) // Change in production!
	v.SetDefault("ADMIN_API_KEY_HASHES", "")
	v.SetDefault("RATE_LIMIT_PER_IP", 100)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", logging.FormatConsole)
	v.SetDefault("WATCH_FILE", "")
	v.SetDefault("WEBHOOK_URLS", "")
	v.SetDefault("WEBHOOK_SECRET", "")
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidationError represents a configuration validation error with details about what failed.
type ValidationError struct {
	Field   string // Name of the configuration field
	Message string // Human-readable error message
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed [%s]: %s", e.Field, e.Message)
}

// Mode returns the parsed CONFIGURE_MODE.
func (c *Config) Mode() (configure.Mode, error) {
	return configure.ParseMode(c.ConfigureMode)
}

// Validate checks that the configuration is usable and returns the first problem found.
//
// Validation Rules:
//  1. StoreType must be one of: "memory", "postgres", "sqlite"
//  2. postgres and sqlite need DB_DSN
//  3. HTTPAddr and GateHost must be non-empty
//  4. ConfigureMode must be "typed" or "boolean"
//  5. RateLimitPerIP must be positive
//  6. Every webhook URL must be an absolute http(s) URL
//  7. Every admin key hash must be a bcrypt hash
//  8. In production (APP_ENV prod/production) the default admin key is refused
func (c *Config) Validate() error {
	switch c.StoreType {
	case kv.TypeMemory:
	case kv.TypePostgres, kv.TypeSQLite:
		if c.DatabaseDSN == "" {
			return ValidationError{
				Field:   "DB_DSN",
				Message: fmt.Sprintf("database DSN is required when STORE_TYPE=%s", c.StoreType),
			}
		}
	default:
		return ValidationError{
			Field:   "STORE_TYPE",
			Message: fmt.Sprintf("must be 'memory', 'postgres' or 'sqlite', got '%s'", c.StoreType),
		}
	}

	if c.HTTPAddr == "" {
		return ValidationError{Field: "APP_HTTP_ADDR", Message: "HTTP server address cannot be empty"}
	}
	if c.GateHost == "" {
		return ValidationError{Field: "GATE_HOST", Message: "gate host cannot be empty"}
	}
	if _, err := c.Mode(); err != nil {
		return ValidationError{Field: "CONFIGURE_MODE", Message: err.Error()}
	}
	if c.RateLimitPerIP <= 0 {
		return ValidationError{Field: "RATE_LIMIT_PER_IP", Message: "must be greater than zero"}
	}

	for _, raw := range c.WebhookURLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ValidationError{Field: "WEBHOOK_URLS", Message: fmt.Sprintf("invalid webhook URL '%s'", raw)}
		}
	}

	for _, h := range c.AdminKeyHashes {
		if !auth.IsHash(h) {
			return ValidationError{Field: "ADMIN_API_KEY_HASHES", Message: "entries must be bcrypt hashes"}
		}
	}

	if c.AppEnv == "prod" || c.AppEnv == "production" {
		if c.AdminAPIKey == defaultAdminAPIKey {
			return ValidationError{
				Field:   "ADMIN_API_KEY",
				Message: "default admin API key 'admin-123' is not allowed in production",
			}
		}
	}

	return nil
}
