package llm

import (
	"context"
	"fmt"
)

// Generator produces text for a prompt. Implementations return coded errors
// from internal/errors: UpstreamUnavailable for transport failures and
// timeouts, UpstreamMalformed for replies that carry no usable text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f(ctx, prompt).
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// New returns the Generator for cfg.Provider.
func New(ctx context.Context, cfg *Config) (Generator, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ProviderGenAI:
		g, err := NewGenAIClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("creating genai client: %w", err)
		}
		return g, nil
	default:
		return NewClient(cfg), nil
	}
}
