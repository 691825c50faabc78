// Package llm isolates the generative-language service behind a single
// Generator interface so the provider can change without touching callers.
package llm

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported providers.
const (
	ProviderGemini = "gemini" // Gemini REST generateContent
	ProviderOpenAI = "openai" // OpenAI-compatible chat completions
	ProviderGenAI  = "genai"  // google.golang.org/genai SDK
)

// Defaults.
const (
	DefaultTimeout     = 20 * time.Second
	DefaultMaxAttempts = 1
	maxAttemptsLimit   = 5
)

var (
	// ErrMissingAPIKey is returned when neither LLM_API_KEY nor GOOGLE_API_KEY is set.
	ErrMissingAPIKey = errors.New("missing LLM_API_KEY (or GOOGLE_API_KEY) environment variable")

	// ErrUnknownProvider is returned for an unsupported LLM_PROVIDER value.
	ErrUnknownProvider = errors.New("unknown LLM provider")
)

// Config holds generation service configuration.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
}

// LoadConfig reads generation service configuration from environment variables.
// Returns ErrMissingAPIKey if no credential is set.
func LoadConfig() (*Config, error) {
	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := &Config{
		Provider:    strings.ToLower(os.Getenv("LLM_PROVIDER")),
		APIKey:      apiKey,
		Model:       os.Getenv("LLM_MODEL"),
		BaseURL:     os.Getenv("LLM_BASE_URL"),
		Timeout:     DefaultTimeout,
		MaxAttempts: DefaultMaxAttempts,
	}

	if raw := os.Getenv("LLM_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing LLM_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}

	if raw := os.Getenv("LLM_MAX_ATTEMPTS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing LLM_MAX_ATTEMPTS: %w", err)
		}
		cfg.MaxAttempts = n
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize fills defaults and validates the provider.
func (c *Config) normalize() error {
	if c.Provider == "" {
		c.Provider = ProviderGemini
	}

	switch c.Provider {
	case ProviderGemini, ProviderGenAI:
		if c.Model == "" {
			c.Model = "gemini-2.0-flash"
		}
	case ProviderOpenAI:
		if c.Model == "" {
			c.Model = "gpt-4o-mini"
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}

	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL(c.Provider)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.MaxAttempts > maxAttemptsLimit {
		c.MaxAttempts = maxAttemptsLimit
	}
	return nil
}

func defaultBaseURL(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "https://api.openai.com"
	case ProviderGenAI:
		// The SDK picks its own endpoint.
		return ""
	default:
		return "https://generativelanguage.googleapis.com"
	}
}
