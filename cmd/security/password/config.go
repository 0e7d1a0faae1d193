package password

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Config controls the bcrypt work factor.
//
// The cost is intentionally environment-tunable so that production deployments
// can raise it without code changes as hardware improves.
type Config struct {
	// Cost is the bcrypt work factor (2^Cost rounds).
	Cost int
}

// DefaultConfig returns the default hashing configuration.
//
// Cost 10 keeps interactive login latency acceptable while remaining a
// meaningful brute-force barrier.
func DefaultConfig() Config {
	return Config{Cost: 10}
}

// FromEnv builds a Config from environment variables with defaults.
//
// MOSAIC_PASSWORD_BCRYPT_COST values outside bcrypt's legal range fall back to
// the default rather than failing: a mistyped cost must never lock users out.
func FromEnv() Config {
	cfg := DefaultConfig()

	v := strings.TrimSpace(os.Getenv("MOSAIC_PASSWORD_BCRYPT_COST"))
	if v == "" {
		return cfg
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < bcrypt.MinCost || n > bcrypt.MaxCost {
		return cfg
	}
	cfg.Cost = n
	return cfg
}
