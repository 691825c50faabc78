// Package config assembles server configuration from flags, environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
)

// Config holds the server configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // json, text, or empty for the environment default
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr         string        // Listen address (default: :8080)
	ReadTimeout  time.Duration // default: 15s
	WriteTimeout time.Duration // default: 30s, must exceed the upstream timeout
	IdleTimeout  time.Duration // default: 60s
}

// RateLimitConfig holds per-client limits for the suggestion endpoint.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Flags carries command-line overrides. Empty values fall through to the
// environment, then to defaults.
type Flags struct {
	Addr      string
	Env       string
	LogLevel  string
	LogFormat string
}

var validEnvironments = []string{"development", "staging", "production"}

// Load builds configuration with precedence flags > environment > defaults.
func Load(flags Flags) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(flags.Env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(flags.LogLevel, "LOG_LEVEL", "info"),
			Format: getConfigValue(flags.LogFormat, "LOG_FORMAT", ""),
		},
		Server: ServerConfig{
			Addr: getConfigValue(flags.Addr, "ADDR", ":8080"),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDuration("SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDuration("SERVER_WRITE_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDuration("SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	rps, err := strconv.ParseFloat(getConfigValue("", "RATE_LIMIT_RPS", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getConfigValue("", "RATE_LIMIT_BURST", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}
	cfg.RateLimit = RateLimitConfig{RPS: rps, Burst: burst}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required values are present and well-formed.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(validEnvironments, c.App.Environment) {
		errs = append(errs, fmt.Errorf("invalid environment %q: must be one of %v", c.App.Environment, validEnvironments))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	switch c.Logger.Format {
	case "", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q: must be json or text", c.Logger.Format))
	}
	if c.RateLimit.RPS <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must be positive"))
	}
	if c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must be positive"))
	}

	return errors.Join(errs...)
}

// CheckWriteTimeout fails when the server would cut a response off before an
// upstream call taking up to upstream can be answered. Zero means no timeout.
func (c *Config) CheckWriteTimeout(upstream time.Duration) error {
	if c.Server.WriteTimeout == 0 || c.Server.WriteTimeout > upstream {
		return nil
	}
	return fmt.Errorf("SERVER_WRITE_TIMEOUT %s must exceed the upstream timeout %s", c.Server.WriteTimeout, upstream)
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// getConfigValue returns the flag value, then the environment value, then the default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

func getDuration(envKey, defaultValue string) (time.Duration, error) {
	raw := getConfigValue("", envKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, raw, err)
	}
	return d, nil
}
