package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/goexperiments/internal/configure"
	"github.com/TimurManjosov/goexperiments/internal/kv"
)

// Config is the CLI profile stored in ~/.goexperiments/config.yaml.
// When Server is set, commands go to that server instead of opening a store.
type Config struct {
	Store    string `yaml:"store"`
	DSN      string `yaml:"dsn"`
	GateHost string `yaml:"gate_host"`
	Mode     string `yaml:"mode"`
	Server   string `yaml:"server,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
}

// Environment variables overriding the profile.
const (
	EnvStore    = "EXPERIMENTS_STORE"
	EnvDSN      = "EXPERIMENTS_DSN"
	EnvGateHost = "EXPERIMENTS_GATE_HOST"
	EnvMode     = "EXPERIMENTS_MODE"
	EnvServer   = "EXPERIMENTS_SERVER"
	EnvAPIKey   = "EXPERIMENTS_API_KEY"
)

// DefaultConfig is used when no profile exists: a SQLite file next to the profile so
// that values persist between invocations.
func DefaultConfig() (*Config, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		Store:    kv.TypeSQLite,
		DSN:      filepath.Join(dir, "experiments.db"),
		GateHost: configure.DefaultGateHost,
		Mode:     configure.ModeTyped.String(),
	}, nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".goexperiments"), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadConfig loads the profile, falling back to DefaultConfig when there is none.
// Fields missing from the file keep their defaults.
func LoadConfig() (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to file
func SaveConfig(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Overrides are values given on the command line; empty fields are unset.
type Overrides struct {
	Store    string
	DSN      string
	GateHost string
	Mode     string
	Server   string
	APIKey   string
}

// ResolveConfig merges the sources.
// Priority: command flags > environment variables > config file > defaults
func ResolveConfig(flags Overrides) (*Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	pick := func(dst *string, flag, env string) {
		if flag != "" {
			*dst = flag
		} else if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	pick(&cfg.Store, flags.Store, EnvStore)
	pick(&cfg.DSN, flags.DSN, EnvDSN)
	pick(&cfg.GateHost, flags.GateHost, EnvGateHost)
	pick(&cfg.Mode, flags.Mode, EnvMode)
	pick(&cfg.Server, flags.Server, EnvServer)
	pick(&cfg.APIKey, flags.APIKey, EnvAPIKey)

	if _, err := configure.ParseMode(cfg.Mode); err != nil {
		return nil, err
	}
	return cfg, nil
}
