package session

import (
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AccessSecret = "access-secret-0123456789abcdef"
	cfg.RefreshSecret = "refresh-secret-0123456789abcdef"
	return cfg
}

func TestJWTManager_IssueAndVerifyAccess(t *testing.T) {
	t.Parallel()

	mgr, err := NewJWTManager(testConfig())
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	now := time.Now().UTC()
	tok, exp, err := mgr.IssueAccess("01HZZZZZZZZZZZZZZZZZZZZZZZ", now)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if !exp.After(now) {
		t.Fatalf("expected exp after now")
	}

	claims, err := mgr.VerifyAccess(tok, now.Add(1*time.Second))
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.UserID != "01HZZZZZZZZZZZZZZZZZZZZZZZ" {
		t.Fatalf("subject mismatch: %q", claims.UserID)
	}
	if claims.TokenID == "" {
		t.Fatalf("missing jti")
	}
}

func TestJWTManager_AccessExpires(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.AccessTokenTTL = time.Minute
	cfg.ClockSkew = 0
	mgr, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	now := time.Now().UTC()
	tok, _, err := mgr.IssueAccess("u1", now)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	if _, err := mgr.VerifyAccess(tok, now.Add(59*time.Second)); err != nil {
		t.Fatalf("token should still verify before TTL: %v", err)
	}
	if _, err := mgr.VerifyAccess(tok, now.Add(2*time.Minute)); err != ErrInvalidToken {
		t.Fatalf("expired token: err=%v, want ErrInvalidToken", err)
	}
}

func TestJWTManager_SecretsAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	mgr, err := NewJWTManager(testConfig())
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	now := time.Now().UTC()
	access, _, err := mgr.IssueAccess("u1", now)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	refresh, err := mgr.IssueRefresh("u1", now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	if _, err := mgr.VerifyRefresh(access, now); err != ErrInvalidToken {
		t.Fatalf("access token verified with refresh secret: err=%v", err)
	}
	if _, err := mgr.VerifyAccess(refresh, now); err != ErrInvalidToken {
		t.Fatalf("refresh token verified with access secret: err=%v", err)
	}
}

func TestJWTManager_RefreshWithoutTTLNeverExpires(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RefreshTokenTTL = 0
	mgr, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	now := time.Now().UTC()
	tok, err := mgr.IssueRefresh("u1", now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	claims, err := mgr.VerifyRefresh(tok, now.Add(365*24*time.Hour))
	if err != nil {
		t.Fatalf("refresh without exp should verify far in the future: %v", err)
	}
	if !claims.ExpiresAt.IsZero() {
		t.Fatalf("expected zero ExpiresAt, got %v", claims.ExpiresAt)
	}
}

func TestJWTManager_SameSecondTokensAreDistinct(t *testing.T) {
	t.Parallel()

	mgr, err := NewJWTManager(testConfig())
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	// JWT timestamps are second-granular; the random jti must still keep two
	// tokens minted at the same instant distinct, or rotation breaks.
	now := time.Now().UTC().Truncate(time.Second)
	a, err := mgr.IssueRefresh("u1", now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	b, err := mgr.IssueRefresh("u1", now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if a == b {
		t.Fatalf("two refresh tokens minted in the same second are identical")
	}
}

func TestLoadConfigFromEnv_RequiresDistinctSecrets(t *testing.T) {
	t.Setenv("MOSAIC_JWT_ACCESS_SECRET", "same-secret-0123456789abcdef")
	t.Setenv("MOSAIC_JWT_REFRESH_SECRET", "same-secret-0123456789abcdef")

	if _, err := LoadConfigFromEnv(); err != ErrConfig {
		t.Fatalf("equal secrets: err=%v, want ErrConfig", err)
	}

	t.Setenv("MOSAIC_JWT_REFRESH_SECRET", "other-secret-0123456789abcdef")
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("default access TTL = %v, want 15m", cfg.AccessTokenTTL)
	}
}

func TestLoadConfigFromEnv_BadDuration(t *testing.T) {
	t.Setenv("MOSAIC_JWT_ACCESS_SECRET", "access-secret-0123456789abcdef")
	t.Setenv("MOSAIC_JWT_REFRESH_SECRET", "refresh-secret-0123456789abcdef")
	t.Setenv("MOSAIC_AUTH_ACCESS_TTL", "soon")

	if _, err := LoadConfigFromEnv(); err != ErrConfig {
		t.Fatalf("bad duration: err=%v, want ErrConfig", err)
	}
}
