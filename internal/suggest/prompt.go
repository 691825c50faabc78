package suggest

import (
	"fmt"
	"strings"

	"github.com/justestif/go-mood-music/internal/mood"
)

// SongCount is how many songs the prompt asks for.
const SongCount = 3

// BuildPrompt returns the instruction sent to the generation service.
// Canonical expression labels get a vibe hint; free text is quoted verbatim.
func BuildPrompt(q mood.Query) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Suggest %d specific Spotify songs that best fit the emotional mood: %q.\n", SongCount, q.String())

	if e, ok := q.Expression(); ok {
		if c, ok := mood.GetCategory(e); ok {
			fmt.Fprintf(&sb, "The mood reads as %q, so lean towards %s.\n", c.Name, c.Description)
		}
	}

	sb.WriteString("Return the response as a JSON array in this exact format, and nothing else:\n")
	sb.WriteString(`[{"title": "song title", "artist": "artist name", "url": "https://open.spotify.com/track/<id>"}]`)
	sb.WriteString("\n")
	sb.WriteString("Make sure each song has a real Spotify track URL and is a good match for the emotion.")

	return sb.String()
}
