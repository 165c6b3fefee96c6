// Package config loads abacus's runtime configuration from flags, an
// optional YAML file, and the environment: a DefaultConfig, a loader that
// binds viper values onto it, and a Validate pass that turns missing or
// malformed settings into actionable errors before the server starts.
package config

import (
	"fmt"
	"net/url"

	"github.com/spf13/viper"
)

// Config holds everything cmd/abacus needs to start serving.
type Config struct {
	DatabaseURL string
	APIPort     int
	APIToken    string
	LogLevel    string

	RateLimitPerMinute int

	RenderOutputDir string
}

// DefaultConfig returns the configuration used when no flag, file, or
// environment variable overrides a setting.
func DefaultConfig() *Config {
	return &Config{
		DatabaseURL:        "postgres://localhost:5432/abacus?sslmode=disable",
		APIPort:            8080,
		LogLevel:           "info",
		RateLimitPerMinute: 120,
		RenderOutputDir:    "./output",
	}
}

// LoadFromFlags builds a Config by layering bound viper values over
// DefaultConfig, the same precedence buildoor's LoadConfigFromFlags uses:
// flags and environment variables (via v.AutomaticEnv) win when set,
// otherwise the default survives.
func LoadFromFlags(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if val := v.GetString("database-url"); val != "" {
		cfg.DatabaseURL = val
	}
	if val := v.GetInt("api-port"); val != 0 {
		cfg.APIPort = val
	}
	if val := v.GetString("api-token"); val != "" {
		cfg.APIToken = val
	}
	if val := v.GetString("log-level"); val != "" {
		cfg.LogLevel = val
	}
	if val := v.GetInt("rate-limit-per-minute"); val != 0 {
		cfg.RateLimitPerMinute = val
	}
	if val := v.GetString("render-output-dir"); val != "" {
		cfg.RenderOutputDir = val
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cfg for the minimum shape the server needs to start,
// mirroring buildoor's ValidateConfig: cheap structural checks only,
// never a live connection attempt.
func Validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database-url is required")
	}
	if _, err := url.Parse(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("database-url: invalid URL: %w", err)
	}
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return fmt.Errorf("api-port: must be between 1 and 65535, got %d", cfg.APIPort)
	}
	if cfg.APIToken == "" {
		return fmt.Errorf("api-token is required")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log-level: invalid value %q (must be debug, info, warn, or error)", cfg.LogLevel)
	}
	if cfg.RateLimitPerMinute <= 0 {
		return fmt.Errorf("rate-limit-per-minute must be positive")
	}
	return nil
}
