package google

import (
	"strings"
	"testing"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MOSAIC_GOOGLE_CLIENT_ID", " client-id.apps.googleusercontent.com ")
	t.Setenv("MOSAIC_GOOGLE_CLIENT_SECRET", "")
	t.Setenv("MOSAIC_GOOGLE_REDIRECT_URL", "")

	cfg := LoadConfigFromEnv()
	if cfg.ClientID != "client-id.apps.googleusercontent.com" {
		t.Fatalf("ClientID = %q", cfg.ClientID)
	}
	if !cfg.Enabled() {
		t.Fatalf("client id alone should enable verification")
	}
	if cfg.RedirectEnabled() {
		t.Fatalf("redirect flow needs secret and redirect URL")
	}

	t.Setenv("MOSAIC_GOOGLE_CLIENT_SECRET", "shhh")
	t.Setenv("MOSAIC_GOOGLE_REDIRECT_URL", "https://mosaic.example/auth/google/callback")
	if !LoadConfigFromEnv().RedirectEnabled() {
		t.Fatalf("full registration should enable the redirect flow")
	}
}

func TestNewVerifierRequiresClientID(t *testing.T) {
	t.Parallel()

	if _, err := NewVerifier(Config{}); err != ErrConfig {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
	if _, err := NewVerifier(Config{ClientID: "x"}); err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
}

func TestIdentityFromClaims(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		claims map[string]any
		want   Identity
	}{
		{
			name: "bool verified",
			claims: map[string]any{
				"email":          "a@example.com",
				"email_verified": true,
				"name":           "Ada",
				"picture":        "https://example.com/a.png",
			},
			want: Identity{Subject: "sub-1", Email: "a@example.com", EmailVerified: true, Name: "Ada", Picture: "https://example.com/a.png"},
		},
		{
			name: "string verified",
			claims: map[string]any{
				"email":          "b@example.com",
				"email_verified": "true",
			},
			want: Identity{Subject: "sub-1", Email: "b@example.com", EmailVerified: true},
		},
		{
			name:   "no email",
			claims: map[string]any{"email_verified": "false"},
			want:   Identity{Subject: "sub-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := identityFromClaims("sub-1", tt.claims)
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewState(t *testing.T) {
	t.Parallel()

	a, err := NewState()
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	b, err := NewState()
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if a == b {
		t.Fatalf("two states are identical")
	}
	if strings.ContainsAny(a, "+/=") {
		t.Fatalf("state must be URL-safe: %q", a)
	}
}
