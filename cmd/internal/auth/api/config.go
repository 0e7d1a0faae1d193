package authapi

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls auth API behavior.
type Config struct {
	// TrustProxy enables X-Forwarded-For parsing for client IPs in logs and
	// the login throttle.
	TrustProxy bool

	// MaxBodyBytes caps request body size for JSON endpoints.
	MaxBodyBytes int64

	// LoginIPMax login attempts per client IP within LoginIPWindow.
	LoginIPMax    int
	LoginIPWindow time.Duration
}

// LoadConfigFromEnv loads auth API config from environment variables with
// safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		TrustProxy:    envBool("MOSAIC_AUTH_TRUST_PROXY", false),
		MaxBodyBytes:  envInt64("MOSAIC_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
		LoginIPMax:    envInt("MOSAIC_AUTH_LOGIN_IP_MAX", 20),
		LoginIPWindow: envDuration("MOSAIC_AUTH_LOGIN_IP_WINDOW", 5*time.Minute),
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.LoginIPMax <= 0 {
		cfg.LoginIPMax = 20
	}
	if cfg.LoginIPWindow <= 0 {
		cfg.LoginIPWindow = 5 * time.Minute
	}
	return cfg
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
