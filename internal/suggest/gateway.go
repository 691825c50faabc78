package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "github.com/justestif/go-mood-music/internal/errors"
	"github.com/justestif/go-mood-music/internal/links"
	"github.com/justestif/go-mood-music/internal/llm"
	"github.com/justestif/go-mood-music/internal/mood"
	"github.com/justestif/go-mood-music/internal/validation"
)

// Timeout bounds.
const (
	DefaultTimeout = 20 * time.Second
	MinTimeout     = time.Second
	MaxTimeout     = 120 * time.Second

	defaultLinkTimeout = 5 * time.Second
)

// LinkResolver swaps upstream URLs for canonical track links.
type LinkResolver interface {
	ResolveLinks(ctx context.Context, items []links.Item) ([]links.Result, error)
}

// Gateway asks a Generator for songs matching a mood.
type Gateway struct {
	generator   llm.Generator
	validator   *validation.Validator
	links       LinkResolver
	logger      *slog.Logger
	timeout     time.Duration
	linkTimeout time.Duration
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for dropped entries and partial results.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithTimeout sets the upstream timeout, clamped to [MinTimeout, MaxTimeout].
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d <= 0 {
			return
		}
		g.timeout = min(max(d, MinTimeout), MaxTimeout)
	}
}

// WithLinkResolver enables link verification for valid suggestions.
func WithLinkResolver(r LinkResolver) Option {
	return func(g *Gateway) {
		g.links = r
	}
}

// NewGateway creates a gateway around generator.
func NewGateway(generator llm.Generator, opts ...Option) *Gateway {
	g := &Gateway{
		generator:   generator,
		validator:   validation.New(),
		logger:      slog.Default(),
		timeout:     DefaultTimeout,
		linkTimeout: defaultLinkTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxLatency is the longest GetSuggestions can take before it gives up,
// counting link verification when it is enabled.
func (g *Gateway) MaxLatency() time.Duration {
	if g.links == nil {
		return g.timeout
	}
	return g.timeout + g.linkTimeout
}

// GetSuggestions returns songs for moodText in the order the upstream ranked them.
// An empty mood fails with InvalidInput before any upstream call. Entries that
// fail validation are dropped; if none survive the result is empty, not an error.
func (g *Gateway) GetSuggestions(ctx context.Context, moodText string) (*Result, error) {
	q, ok := mood.ParseQuery(moodText)
	if !ok {
		return nil, domainerrors.InvalidInput("No emotion data provided")
	}

	text, err := g.generate(ctx, BuildPrompt(q))
	if err != nil {
		return nil, err
	}

	entries, err := parseEntries(text)
	if err != nil {
		g.logger.Warn("unparseable suggestions", "mood", q.String(), "error", err)
		return nil, err
	}

	result := g.validate(entries)

	if g.links != nil && len(result.Songs) > 0 {
		g.verifyLinks(ctx, result.Songs)
	}

	if result.Partial() {
		g.logger.Warn("partial result",
			"mood", q.String(),
			"kept", len(result.Songs),
			"dropped", result.Dropped,
		)
	}

	return result, nil
}

// generate performs the single upstream call under the gateway timeout.
func (g *Gateway) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.generator.Generate(ctx, prompt)
	if err == nil {
		return text, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", domainerrors.UpstreamUnavailable("generation service timed out").WithCause(err)
	}

	var coded *domainerrors.Error
	if errors.As(err, &coded) {
		return "", err
	}
	return "", domainerrors.UpstreamUnavailable("generation service failed").WithCause(err)
}

// validate decodes and checks each entry, keeping upstream order.
func (g *Gateway) validate(entries []json.RawMessage) *Result {
	if len(entries) > MaxSongs {
		g.logger.Warn("truncating suggestions", "received", len(entries), "kept", MaxSongs)
		entries = entries[:MaxSongs]
	}

	result := &Result{Songs: make([]Song, 0, len(entries))}

	for i, raw := range entries {
		var s Song
		if err := json.Unmarshal(raw, &s); err != nil {
			g.logger.Warn("dropping malformed suggestion", "index", i, "error", err)
			result.Dropped++
			continue
		}

		s.Title = strings.TrimSpace(s.Title)
		s.Artist = strings.TrimSpace(s.Artist)
		s.URL = strings.TrimSpace(s.URL)

		if err := g.validator.Validate(s); err != nil {
			g.logger.Warn("dropping invalid suggestion", "index", i, "error", err)
			result.Dropped++
			continue
		}

		result.Songs = append(result.Songs, s)
	}

	return result
}

// verifyLinks replaces URLs in place. Failures keep the upstream URL.
func (g *Gateway) verifyLinks(ctx context.Context, songs []Song) {
	ctx, cancel := context.WithTimeout(ctx, g.linkTimeout)
	defer cancel()

	items := make([]links.Item, len(songs))
	for i, s := range songs {
		items[i] = links.Item{Title: s.Title, Artist: s.Artist, URL: s.URL}
	}

	results, err := g.links.ResolveLinks(ctx, items)
	if err != nil {
		g.logger.Warn("link verification incomplete", "error", err)
	}

	for i, r := range results {
		if i >= len(songs) {
			break
		}
		if r.Error != nil {
			g.logger.Debug("keeping upstream link", "title", songs[i].Title, "error", r.Error)
			continue
		}
		if r.URL != "" {
			songs[i].URL = r.URL
		}
	}
}
