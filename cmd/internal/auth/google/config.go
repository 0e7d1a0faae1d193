package google

import (
	"errors"
	"os"
	"strings"
)

// ErrConfig is returned for incomplete Google sign-in configuration.
var ErrConfig = errors.New("invalid google sign-in config")

// Config holds the OAuth client registration for Google sign-in.
//
// ClientID alone enables ID-token verification (POST path); the redirect
// flow additionally needs ClientSecret and RedirectURL.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// LoadConfigFromEnv reads the Google client registration.
//
//   - MOSAIC_GOOGLE_CLIENT_ID
//   - MOSAIC_GOOGLE_CLIENT_SECRET
//   - MOSAIC_GOOGLE_REDIRECT_URL
//
// All three absent is not an error; Google sign-in is simply disabled.
func LoadConfigFromEnv() Config {
	return Config{
		ClientID:     strings.TrimSpace(os.Getenv("MOSAIC_GOOGLE_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("MOSAIC_GOOGLE_CLIENT_SECRET")),
		RedirectURL:  strings.TrimSpace(os.Getenv("MOSAIC_GOOGLE_REDIRECT_URL")),
	}
}

// Enabled reports whether ID-token verification can run.
func (c Config) Enabled() bool {
	return c.ClientID != ""
}

// RedirectEnabled reports whether the server-side code flow can run.
func (c Config) RedirectEnabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}
