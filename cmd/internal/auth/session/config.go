package session

import (
	"os"
	"strings"
	"time"
)

// Config defines all runtime configuration for the session subsystem.
//
// It controls access-token TTL, refresh-token policy, clock skew tolerance,
// and the two JWT signing secrets.
//
// This struct is intentionally explicit and environment-driven so that
// production deployments can tune security parameters without code changes.
type Config struct {
	// Issuer is the value set in the "iss" claim of issued tokens.
	Issuer string

	// AccessTokenTTL defines the lifetime of access tokens.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL defines the lifetime of refresh tokens.
	// Zero means refresh tokens carry no expiration claim; revocation then
	// relies entirely on allow-list membership.
	RefreshTokenTTL time.Duration

	// ClockSkew defines the allowed time skew during token validation.
	ClockSkew time.Duration

	// AccessSecret signs access tokens. Leaking it must not allow minting
	// refresh tokens, hence the separate RefreshSecret.
	AccessSecret string

	// RefreshSecret signs refresh tokens.
	RefreshSecret string
}

// DefaultConfig returns a secure default configuration suitable for development.
//
// Production environments should override values via environment variables.
func DefaultConfig() Config {
	return Config{
		Issuer:          "mosaic",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 0,
		ClockSkew:       30 * time.Second,
	}
}

// minSecretBytes guards against trivially brute-forceable HS256 keys.
const minSecretBytes = 16

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - MOSAIC_JWT_ACCESS_SECRET
//   - MOSAIC_JWT_REFRESH_SECRET (must differ from the access secret)
//
// Optional (durations must be valid Go duration strings):
//   - MOSAIC_AUTH_ISSUER
//   - MOSAIC_AUTH_ACCESS_TTL
//   - MOSAIC_AUTH_REFRESH_TTL
//   - MOSAIC_AUTH_CLOCK_SKEW
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("MOSAIC_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("MOSAIC_AUTH_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("MOSAIC_AUTH_REFRESH_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTokenTTL = d
	}

	if v := os.Getenv("MOSAIC_AUTH_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	cfg.AccessSecret = strings.TrimSpace(os.Getenv("MOSAIC_JWT_ACCESS_SECRET"))
	cfg.RefreshSecret = strings.TrimSpace(os.Getenv("MOSAIC_JWT_REFRESH_SECRET"))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the secret invariants.
func (c Config) Validate() error {
	if len(c.AccessSecret) < minSecretBytes || len(c.RefreshSecret) < minSecretBytes {
		return ErrConfig
	}
	// Separate secrets are the point: a leaked access secret must not mint sessions.
	if c.AccessSecret == c.RefreshSecret {
		return ErrConfig
	}
	if c.AccessTokenTTL <= 0 {
		return ErrConfig
	}
	return nil
}
