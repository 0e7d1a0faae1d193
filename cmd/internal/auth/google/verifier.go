package google

import (
	"context"
	"errors"

	"google.golang.org/api/idtoken"
)

// ErrInvalidIDToken is returned when an assertion fails signature, audience,
// or expiry checks.
var ErrInvalidIDToken = errors.New("invalid google id token")

// Identity is the subset of a verified ID token the rest of Mosaic cares
// about. Subject is Google's stable account id; Email may be empty when the
// account exposes none.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Verifier checks a raw Google ID token and extracts the identity it asserts.
type Verifier interface {
	Verify(ctx context.Context, rawIDToken string) (Identity, error)
}

type idTokenVerifier struct {
	clientID string
}

// NewVerifier builds a Verifier that validates tokens against Google's
// published keys with this deployment's client id as the required audience.
func NewVerifier(cfg Config) (Verifier, error) {
	if !cfg.Enabled() {
		return nil, ErrConfig
	}
	return &idTokenVerifier{clientID: cfg.ClientID}, nil
}

func (v *idTokenVerifier) Verify(ctx context.Context, rawIDToken string) (Identity, error) {
	payload, err := idtoken.Validate(ctx, rawIDToken, v.clientID)
	if err != nil {
		return Identity{}, ErrInvalidIDToken
	}
	return identityFromClaims(payload.Subject, payload.Claims), nil
}

// identityFromClaims maps the raw claim set. Google nominally sends
// email_verified as a bool, but some token variants carry it as the string
// "true", so both are accepted.
func identityFromClaims(subject string, claims map[string]any) Identity {
	id := Identity{
		Subject: subject,
		Email:   claimString(claims, "email"),
		Name:    claimString(claims, "name"),
		Picture: claimString(claims, "picture"),
	}
	switch v := claims["email_verified"].(type) {
	case bool:
		id.EmailVerified = v
	case string:
		id.EmailVerified = v == "true"
	}
	return id
}

func claimString(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}
