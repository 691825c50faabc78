package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"

	domainerrors "github.com/justestif/go-mood-music/internal/errors"
)

// GenAIClient generates text through the Google Gen AI SDK.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient creates an SDK-backed client. BaseURL, when set, overrides
// the SDK endpoint.
func NewGenAIClient(ctx context.Context, cfg *Config) (*GenAIClient, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL + "/"}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}

	return &GenAIClient{client: client, model: cfg.Model}, nil
}

// Generate sends prompt as a single user turn and returns the response text.
func (g *GenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", mapGenAIError(ctx, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", domainerrors.UpstreamMalformed("upstream response carried no generated text")
	}
	return text, nil
}

// mapGenAIError classifies SDK errors the same way the REST client classifies status codes.
func mapGenAIError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domainerrors.UpstreamUnavailable("generation request timed out").WithCause(err)
	}

	code, ok := apiErrorCode(err)
	if !ok {
		return domainerrors.UpstreamUnavailable("generation service unreachable").WithCause(err)
	}

	if code == http.StatusTooManyRequests || code >= 500 {
		return domainerrors.UpstreamUnavailablef("generation service returned status %d", code).WithCause(err)
	}
	return domainerrors.UpstreamMalformedf("generation service returned status %d", code).WithCause(err)
}

func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
