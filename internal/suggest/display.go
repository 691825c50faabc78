package suggest

import (
	"fmt"
	"strings"
)

// FormatSuggestions returns a human-readable list of suggestions for a mood.
// Dropped entries are summarized by count only.
func FormatSuggestions(moodText string, r *Result) string {
	var sb strings.Builder

	if r == nil || len(r.Songs) == 0 {
		sb.WriteString(fmt.Sprintf("No suggestions found for %q", moodText))
		if r != nil && r.Dropped > 0 {
			sb.WriteString(fmt.Sprintf(" (%d malformed skipped)", r.Dropped))
		}
		sb.WriteString("\n")
		return sb.String()
	}

	songWord := "song"
	if len(r.Songs) > 1 {
		songWord = "songs"
	}

	sb.WriteString(fmt.Sprintf("%d %s for %q", len(r.Songs), songWord, moodText))
	if r.Dropped > 0 {
		sb.WriteString(fmt.Sprintf(" (%d malformed skipped)", r.Dropped))
	}
	sb.WriteString("\n")

	for i, s := range r.Songs {
		sb.WriteString(fmt.Sprintf("  %d. \"%s\" - %s\n", i+1, s.Title, s.Artist))
		sb.WriteString(fmt.Sprintf("     %s\n", s.URL))
	}

	return sb.String()
}
