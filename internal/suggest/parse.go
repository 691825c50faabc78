package suggest

import (
	"bytes"
	"encoding/json"
	"strings"

	domainerrors "github.com/justestif/go-mood-music/internal/errors"
)

// MaxSongs bounds how many upstream entries are kept.
const MaxSongs = 10

// parseEntries decodes generated text into raw song entries.
// Accepts a bare JSON array or an object carrying "suggested_songs",
// optionally wrapped in a Markdown code fence.
func parseEntries(text string) ([]json.RawMessage, error) {
	data := []byte(stripCodeFence(text))

	switch firstByte(data) {
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, domainerrors.UpstreamMalformed("generated text is not a JSON array").WithCause(err)
		}
		return entries, nil

	case '{':
		var wrapped struct {
			SuggestedSongs *[]json.RawMessage `json:"suggested_songs"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, domainerrors.UpstreamMalformed("generated text is not valid JSON").WithCause(err)
		}
		if wrapped.SuggestedSongs == nil {
			return nil, domainerrors.UpstreamMalformed("generated object has no suggested_songs array")
		}
		return *wrapped.SuggestedSongs, nil

	default:
		return nil, domainerrors.UpstreamMalformed("generated text is not a JSON array")
	}
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	// Drop the info string ("json", "JSON", ...) up to the first newline.
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	} else {
		text = ""
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func firstByte(data []byte) byte {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0
	}
	return data[0]
}
