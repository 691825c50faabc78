package spotify

import (
	"errors"
	"os"
)

// ErrMissingCredentials is returned when SPOTIFY_ID or SPOTIFY_SECRET is not set.
// Link verification is optional, so callers usually treat this as "disabled".
var ErrMissingCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET environment variable")

// Config holds Spotify app credentials.
type Config struct {
	ClientID     string
	ClientSecret string
}

// LoadConfig reads Spotify configuration from environment variables.
// Returns ErrMissingCredentials if either variable is not set.
func LoadConfig() (*Config, error) {
	clientID := os.Getenv("SPOTIFY_ID")
	clientSecret := os.Getenv("SPOTIFY_SECRET")

	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}
	return &Config{ClientID: clientID, ClientSecret: clientSecret}, nil
}
