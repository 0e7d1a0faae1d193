package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mosaic/cmd/identity"
	"mosaic/cmd/internal/auth/google"
	"mosaic/cmd/internal/auth/session"
)

// fakeVerifier accepts credentials of the form "ok:<email>", anything else
// fails verification.
type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, raw string) (google.Identity, error) {
	email, ok := strings.CutPrefix(raw, "ok:")
	if !ok {
		return google.Identity{}, google.ErrInvalidIDToken
	}
	return google.Identity{
		Subject:       "google-sub",
		Email:         email,
		EmailVerified: email != "",
		Picture:       "https://example.com/pic.png",
	}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *session.MemoryStore) {
	t.Helper()

	t.Setenv("MOSAIC_PASSWORD_BCRYPT_COST", "4")

	cfg := session.DefaultConfig()
	cfg.AccessSecret = "access-secret-0123456789abcdef"
	cfg.RefreshSecret = "refresh-secret-0123456789abcdef"

	mgr, err := session.NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	users := identity.NewMemoryStore()
	allow := session.NewMemoryStore()
	svc, err := session.NewService(cfg, users, allow, mgr)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	h, err := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), LoadConfigFromEnv(), users, svc,
		WithGoogleVerifier(fakeVerifier{}))
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	mux := http.NewServeMux()
	h.Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, allow
}

func doJSON(t *testing.T, method, url string, body any, bearer string) (*http.Response, map[string]any) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode body %q: %v", raw, err)
		}
	}
	return resp, out
}

func tokensFrom(t *testing.T, body map[string]any) (access, refresh string) {
	t.Helper()
	tokens, ok := body["tokens"].(map[string]any)
	if !ok {
		t.Fatalf("no tokens in body: %v", body)
	}
	access, _ = tokens["access_token"].(string)
	refresh, _ = tokens["refresh_token"].(string)
	if access == "" || refresh == "" {
		t.Fatalf("incomplete token pair: %v", tokens)
	}
	return access, refresh
}

func errorCode(body map[string]any) string {
	e, ok := body["error"].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := e["code"].(string)
	return code
}

func TestHandler_RegisterLoginRefreshLogout(t *testing.T) {
	srv, _ := newTestServer(t)

	// Register.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/register",
		map[string]any{"email": "e2e@example.com", "password": "pw123456", "name": "E2E"}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, body %v", resp.StatusCode, body)
	}
	access, refresh := tokensFrom(t, body)

	// The access token opens /me.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/me", nil, access)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/me status = %d, body %v", resp.StatusCode, body)
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "e2e@example.com" {
		t.Fatalf("unexpected /me body: %v", body)
	}

	// Refresh rotates.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/auth/refresh", nil, refresh)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status = %d, body %v", resp.StatusCode, body)
	}
	_, refresh2 := tokensFrom(t, body)
	if refresh2 == refresh {
		t.Fatalf("refresh echoed the consumed token")
	}

	// The consumed token is now a compromise signal.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/auth/refresh", nil, refresh)
	if resp.StatusCode != http.StatusUnauthorized || errorCode(body) != "token_reuse_detected" {
		t.Fatalf("reuse: status = %d, code = %q", resp.StatusCode, errorCode(body))
	}

	// The wipe also killed the successor.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/auth/refresh", nil, refresh2)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("successor after wipe: status = %d, body %v", resp.StatusCode, body)
	}

	// Login again and log out cleanly.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/auth/login",
		map[string]any{"email": "e2e@example.com", "password": "pw123456"}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body %v", resp.StatusCode, body)
	}
	_, refresh3 := tokensFrom(t, body)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/auth/logout", nil, refresh3)
	if resp.StatusCode != http.StatusOK || body["logged_out"] != true {
		t.Fatalf("logout status = %d, body %v", resp.StatusCode, body)
	}
}

func TestHandler_RegisterValidationAndConflict(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/register",
		map[string]any{"email": "", "password": ""}, "")
	if resp.StatusCode != http.StatusBadRequest || errorCode(body) != "invalid_request" {
		t.Fatalf("validation: status = %d, code = %q", resp.StatusCode, errorCode(body))
	}
	e, _ := body["error"].(map[string]any)
	if msg, _ := e["message"].(string); msg != "missing email or password" {
		t.Fatalf("message = %q", msg)
	}

	if resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/register",
		map[string]any{"email": "dup@example.com", "password": "pw123456", "name": "Dup"}, ""); resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed register: status = %d, body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/auth/register",
		map[string]any{"email": "dup@example.com", "password": "pw123456", "name": "Other"}, "")
	if resp.StatusCode != http.StatusNotAcceptable || errorCode(body) != "conflict" {
		t.Fatalf("conflict: status = %d, code = %q", resp.StatusCode, errorCode(body))
	}
}

func TestHandler_LoginBadCredentials(t *testing.T) {
	srv, _ := newTestServer(t)

	if resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/register",
		map[string]any{"email": "bad@example.com", "password": "right-pw", "name": "Bad"}, ""); resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status = %d, body %v", resp.StatusCode, body)
	}

	for _, creds := range []map[string]any{
		{"email": "bad@example.com", "password": "wrong"},
		{"email": "ghost@example.com", "password": "right-pw"},
	} {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/login", creds, "")
		if resp.StatusCode != http.StatusUnauthorized || errorCode(body) != "invalid_credentials" {
			t.Fatalf("creds %v: status = %d, code = %q", creds, resp.StatusCode, errorCode(body))
		}
	}
}

func TestHandler_RefreshRejectsAccessToken(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/register",
		map[string]any{"email": "mix@example.com", "password": "pw123456", "name": "Mix"}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status = %d", resp.StatusCode)
	}
	access, _ := tokensFrom(t, body)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/auth/refresh", nil, access)
	if resp.StatusCode != http.StatusUnauthorized || errorCode(body) != "invalid_token" {
		t.Fatalf("access-as-refresh: status = %d, code = %q", resp.StatusCode, errorCode(body))
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/auth/refresh", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing bearer: status = %d, body %v", resp.StatusCode, body)
	}
}

func TestHandler_GoogleSignIn(t *testing.T) {
	srv, allow := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/google",
		map[string]any{"credential": "ok:fed@example.com"}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("google sign-in: status = %d, body %v", resp.StatusCode, body)
	}
	access, _ := tokensFrom(t, body)
	user, _ := body["user"].(map[string]any)
	uid, _ := user["id"].(string)
	if uid == "" || user["email"] != "fed@example.com" {
		t.Fatalf("unexpected user: %v", user)
	}
	if n, _ := allow.Count(context.Background(), uid); n != 1 {
		t.Fatalf("allow-list size = %d, want 1", n)
	}

	// The issued access token works like any other.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/me", nil, access)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/me: status = %d, body %v", resp.StatusCode, body)
	}

	// Rejected assertion.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/auth/google",
		map[string]any{"credential": "garbage"}, "")
	if resp.StatusCode != http.StatusBadRequest || errorCode(body) != "invalid_assertion" {
		t.Fatalf("bad assertion: status = %d, code = %q", resp.StatusCode, errorCode(body))
	}

	// Assertion without an email.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/auth/google",
		map[string]any{"credential": "ok:"}, "")
	if resp.StatusCode != http.StatusUnauthorized || errorCode(body) != "no_verified_email" {
		t.Fatalf("no email: status = %d, code = %q", resp.StatusCode, errorCode(body))
	}
}

func TestHandler_MethodGuards(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/auth/register"},
		{http.MethodGet, "/auth/login"},
		{http.MethodPost, "/auth/logout"},
		{http.MethodPost, "/auth/refresh"},
		{http.MethodDelete, "/auth/google"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s %s", tc.method, tc.path), func(t *testing.T) {
			resp, _ := doJSON(t, tc.method, srv.URL+tc.path, nil, "")
			if resp.StatusCode != http.StatusMethodNotAllowed {
				t.Fatalf("status = %d, want 405", resp.StatusCode)
			}
		})
	}
}

func TestHandler_RejectsUnknownJSONFields(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/login",
		map[string]any{"email": "a@x.com", "password": "pw", "admin": true}, "")
	if resp.StatusCode != http.StatusBadRequest || errorCode(body) != "invalid_json" {
		t.Fatalf("unknown field: status = %d, code = %q", resp.StatusCode, errorCode(body))
	}
}

func TestNewHandlerRequiresDependencies(t *testing.T) {
	if _, err := NewHandler(nil, Config{}, nil, nil); err == nil {
		t.Fatalf("expected error for nil dependencies")
	}
}
