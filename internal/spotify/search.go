package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/zmb3/spotify/v2"
)

var (
	// ErrNoMatch is returned when a search finds no track.
	ErrNoMatch = errors.New("no matching track")

	// ErrArtistMismatch is returned when the best match is by another artist.
	ErrArtistMismatch = errors.New("best match is by a different artist")
)

// SearchTrack returns the best catalog match for title by artist.
func (c *Client) SearchTrack(ctx context.Context, title, artist string) (*Track, error) {
	query := fmt.Sprintf("track:%s artist:%s", quoteField(title), quoteField(artist))

	result, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return nil, fmt.Errorf("searching tracks: %w", err)
	}

	if result.Tracks == nil || len(result.Tracks.Tracks) == 0 {
		return nil, ErrNoMatch
	}

	track := convertTrack(result.Tracks.Tracks[0])
	return &track, nil
}

// ResolveURL returns the canonical track link for title by artist.
// A match credited to none of the suggested artists is rejected so the
// link never points at a different song than the one named.
func (c *Client) ResolveURL(ctx context.Context, title, artist string) (string, error) {
	track, err := c.SearchTrack(ctx, title, artist)
	if err != nil {
		return "", err
	}
	if track.URL == "" {
		return "", ErrNoMatch
	}
	if !artistMatches(artist, track.Artist) {
		return "", fmt.Errorf("%w: got %q", ErrArtistMismatch, track.Artist)
	}
	return track.URL, nil
}

// artistMatches reports whether any credited artist overlaps the suggested one.
func artistMatches(suggested, credited string) bool {
	want := normalizeName(suggested)
	if want == "" {
		return false
	}
	for _, name := range strings.Split(credited, ", ") {
		got := normalizeName(name)
		if got == "" {
			continue
		}
		if strings.Contains(want, got) || strings.Contains(got, want) {
			return true
		}
	}
	return false
}

// normalizeName lowercases s, spells out "&" and collapses punctuation to
// single spaces.
func normalizeName(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "&", " and ")
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// convertTrack converts a Spotify FullTrack to Track.
func convertTrack(full spotify.FullTrack) Track {
	artists := make([]string, len(full.Artists))
	for i, a := range full.Artists {
		artists[i] = a.Name
	}

	url := full.ExternalURLs["spotify"]
	if url == "" && full.ID != "" {
		url = "https://open.spotify.com/track/" + full.ID.String()
	}

	return Track{
		ID:     full.ID.String(),
		Name:   full.Name,
		Artist: strings.Join(artists, ", "),
		URL:    url,
	}
}

// quoteField wraps multi-word values so field filters apply to the whole value.
func quoteField(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), `"`, "")
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}
