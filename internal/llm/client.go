package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	domainerrors "github.com/justestif/go-mood-music/internal/errors"
)

const (
	userAgent = "go-mood-music/1.0"

	// Upper bound on a provider reply; anything larger is not a song list.
	maxResponseBytes = 1 << 20
)

// Client is an HTTP client for REST generation endpoints.
// One Generate call is one outbound request unless MaxAttempts allows retries.
type Client struct {
	provider    string
	apiKey      string
	model       string
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	retryDelay  time.Duration
}

// NewClient creates a REST generation client from the provided configuration.
func NewClient(cfg *Config) *Client {
	return &Client{
		provider: cfg.Provider,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		baseURL:  cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  time.Second,
	}
}

// Generate sends prompt to the configured provider and returns the generated text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	reqURL, payload, err := c.buildRequest(prompt)
	if err != nil {
		return "", domainerrors.Internal("building generation request").WithCause(err)
	}

	body, err := c.doRequest(ctx, reqURL, payload)
	if err != nil {
		return "", err
	}

	return ExtractText(body)
}

// Gemini generateContent request body.
type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

// OpenAI-compatible chat completion request body.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// buildRequest returns the endpoint and JSON body for the configured provider.
func (c *Client) buildRequest(prompt string) (string, []byte, error) {
	var (
		reqURL string
		body   any
	)

	switch c.provider {
	case ProviderOpenAI:
		reqURL = c.baseURL + "/v1/chat/completions"
		body = chatRequest{
			Model:    c.model,
			Messages: []chatMessage{{Role: "user", Content: prompt}},
		}
	case ProviderGemini, "":
		reqURL = fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
		body = geminiRequest{
			Contents: []geminiContent{{
				Role:  "user",
				Parts: []geminiPart{{Text: prompt}},
			}},
			GenerationConfig: geminiGenerationConfig{ResponseMIMEType: "application/json"},
		}
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownProvider, c.provider)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", nil, fmt.Errorf("encoding request: %w", err)
	}
	return reqURL, payload, nil
}

// doRequest performs the POST, retrying only unavailable upstreams while attempts remain.
func (c *Client) doRequest(ctx context.Context, reqURL string, payload []byte) ([]byte, error) {
	attempts := max(c.maxAttempts, 1)
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, domainerrors.UpstreamUnavailable("generation request cancelled").WithCause(ctx.Err())
			case <-time.After(c.retryDelay << (attempt - 1)):
			}
		}

		body, err := c.doSingleRequest(ctx, reqURL, payload)
		if err == nil {
			return body, nil
		}

		if domainerrors.Is(err, domainerrors.ErrUpstreamUnavailable) && ctx.Err() == nil {
			lastErr = err
			continue
		}

		return nil, err
	}

	return nil, lastErr
}

// doSingleRequest performs a single HTTP request and classifies the outcome.
func (c *Client) doSingleRequest(ctx context.Context, reqURL string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, domainerrors.Internal("creating generation request").WithCause(err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	switch c.provider {
	case ProviderOpenAI:
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	default:
		req.Header.Set("x-goog-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.UpstreamUnavailable("generation service unreachable").WithCause(redactURL(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, domainerrors.UpstreamUnavailable("reading generation response").WithCause(err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, domainerrors.UpstreamUnavailablef("generation service returned status %d", resp.StatusCode)
	default:
		msg := http.StatusText(resp.StatusCode)
		if env := errorMessage(errorField(body)); env != "" {
			msg = env
		}
		return nil, domainerrors.UpstreamMalformedf("generation service returned status %d: %s", resp.StatusCode, msg)
	}
}

// errorField pulls the raw "error" member out of an error body, if any.
func errorField(body []byte) json.RawMessage {
	var v struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil
	}
	return v.Error
}

// redactURL strips the request URL from transport errors so keys in query
// strings of custom base URLs never reach logs.
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
