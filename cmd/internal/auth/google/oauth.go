package google

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// ErrNoIDToken is returned when a code exchange succeeds but Google's token
// response carries no id_token to verify.
var ErrNoIDToken = errors.New("token exchange returned no id token")

// Flow drives the server-side authorization-code flow: build the consent URL,
// exchange the callback code, verify the resulting ID token.
type Flow struct {
	oauth    *oauth2.Config
	verifier Verifier
}

// NewFlow builds a Flow for the redirect sign-in path.
func NewFlow(cfg Config, verifier Verifier) (*Flow, error) {
	if !cfg.RedirectEnabled() || verifier == nil {
		return nil, ErrConfig
	}

	return &Flow{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     googleoauth.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		verifier: verifier,
	}, nil
}

// AuthCodeURL returns the Google consent URL carrying the anti-forgery state.
func (f *Flow) AuthCodeURL(state string) string {
	return f.oauth.AuthCodeURL(state)
}

// Exchange trades the callback code for tokens and verifies the ID token
// among them.
func (f *Flow) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		return Identity{}, ErrInvalidIDToken
	}

	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return Identity{}, ErrNoIDToken
	}

	return f.verifier.Verify(ctx, raw)
}

// NewState returns a random URL-safe anti-forgery state value.
func NewState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
