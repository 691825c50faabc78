package spotify

import "regexp"

// Track contains the catalog fields needed to link a suggestion.
type Track struct {
	ID     string
	Name   string
	Artist string // Comma-separated artist names
	URL    string // open.spotify.com link
}

var trackURLPattern = regexp.MustCompile(`^https://open\.spotify\.com/(?:intl-[a-z]{2}(?:-[a-z]{2})?/)?track/[A-Za-z0-9]{22}(?:\?.*)?$`)

// IsTrackURL reports whether u is a public Spotify track page link.
func IsTrackURL(u string) bool {
	return trackURLPattern.MatchString(u)
}
