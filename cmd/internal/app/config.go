package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Security policy:
	// If true, MOSAIC_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) and
	// refresh-token hashing must be HMAC-based.
	RequireTokenHMAC bool

	MetricsEnabled bool

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("MOSAIC_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("MOSAIC_LOG_LEVEL", "info"),
		LogFormat: EnvString("MOSAIC_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("MOSAIC_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("MOSAIC_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("MOSAIC_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("MOSAIC_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("MOSAIC_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("MOSAIC_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("MOSAIC_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("MOSAIC_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("MOSAIC_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("MOSAIC_REQUIRE_TOKEN_HMAC", false),

		MetricsEnabled: EnvBool("MOSAIC_METRICS_ENABLED", true),

		CORSAllowedOrigins:   EnvStringSlice("MOSAIC_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("MOSAIC_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("MOSAIC_CORS_MAX_AGE_SECONDS", 600),
	}
}
