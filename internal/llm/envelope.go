package llm

import (
	"encoding/json"
	"strings"

	domainerrors "github.com/justestif/go-mood-music/internal/errors"
)

// envelope covers the response shapes seen across provider versions.
// Every field is optional; ExtractText decides which one carries the text.
type envelope struct {
	// Gemini generateContent
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		Output       string `json:"output"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`

	// Chat completion and text completion
	Choices []struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
		Text *string `json:"text"`
	} `json:"choices"`

	// Ollama chat and generate
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
	Response *string `json:"response"`

	Text *string `json:"text"`

	// Provider error object or string
	Error json.RawMessage `json:"error"`

	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// ExtractText returns the generated text carried by a provider response body.
// It fails with an UpstreamMalformed error when the body is not JSON, carries a
// provider error, or has no recognizable text field.
func ExtractText(body []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", domainerrors.UpstreamMalformed("upstream response is not valid JSON").WithCause(err)
	}

	if msg := errorMessage(env.Error); msg != "" {
		return "", domainerrors.UpstreamMalformedf("upstream returned an error: %s", msg)
	}

	if text, ok := env.text(); ok {
		return text, nil
	}

	if env.PromptFeedback != nil && env.PromptFeedback.BlockReason != "" {
		return "", domainerrors.UpstreamMalformedf("upstream blocked the prompt: %s", env.PromptFeedback.BlockReason)
	}

	return "", domainerrors.UpstreamMalformed("upstream response carried no generated text")
}

// text walks the known shapes in order and returns the first non-empty text.
func (e *envelope) text() (string, bool) {
	for _, c := range e.Candidates {
		if c.Content != nil {
			var sb strings.Builder
			for _, p := range c.Content.Parts {
				sb.WriteString(p.Text)
			}
			if s := strings.TrimSpace(sb.String()); s != "" {
				return s, true
			}
		}
		if s := strings.TrimSpace(c.Output); s != "" {
			return s, true
		}
	}

	for _, c := range e.Choices {
		if c.Message != nil {
			if s := strings.TrimSpace(c.Message.Content); s != "" {
				return s, true
			}
		}
		if c.Text != nil {
			if s := strings.TrimSpace(*c.Text); s != "" {
				return s, true
			}
		}
	}

	if e.Message != nil {
		if s := strings.TrimSpace(e.Message.Content); s != "" {
			return s, true
		}
	}
	if e.Response != nil {
		if s := strings.TrimSpace(*e.Response); s != "" {
			return s, true
		}
	}
	if e.Text != nil {
		if s := strings.TrimSpace(*e.Text); s != "" {
			return s, true
		}
	}

	return "", false
}

// errorMessage reads an error field that may be a string or an object with a message.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if obj.Status != "" {
			return obj.Status
		}
	}
	return string(raw)
}
