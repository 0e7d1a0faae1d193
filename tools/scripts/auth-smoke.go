// Package main provides a CI-friendly smoke test for the Mosaic auth surface.
//
// It validates:
//   - register -> 201 with a token pair
//   - access token opens /me
//   - refresh rotates and the old refresh token is rejected with 401
//   - reuse handling wipes the whole session set
//   - login -> logout round-trip
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type tokenPair struct {
	AccessToken     string    `json:"access_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
	RefreshToken    string    `json:"refresh_token"`
}

type authResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Tokens tokenPair `json:"tokens"`
}

type smoke struct {
	base    string
	client  *http.Client
	verbose bool
}

func main() {
	var (
		baseURL = flag.String("url", "http://127.0.0.1:8080", "Mosaic base URL")
		timeout = flag.Duration("timeout", 7*time.Second, "Per-request timeout")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}

	s := &smoke{
		base:    strings.TrimRight(*baseURL, "/"),
		client:  &http.Client{Timeout: *timeout},
		verbose: *verbose,
	}

	email := fmt.Sprintf("smoke-%d@example.com", time.Now().UnixNano())
	password := "smoke-test-password"

	reg := s.mustRegister(email, password)
	s.logf("registered %s as %s", email, reg.User.ID)

	s.mustMe(reg.Tokens.AccessToken, email)
	s.logf("/me ok")

	rotated := s.mustRefresh(reg.Tokens.RefreshToken)
	if rotated.RefreshToken == reg.Tokens.RefreshToken {
		fatalf("refresh echoed the consumed token")
	}
	s.logf("refresh rotated")

	// Replaying the consumed token must trip reuse handling.
	s.mustStatus(http.MethodGet, "/auth/refresh", nil, reg.Tokens.RefreshToken, http.StatusUnauthorized)
	s.logf("reuse detected")

	// The wipe killed the successor too.
	s.mustStatus(http.MethodGet, "/auth/refresh", nil, rotated.RefreshToken, http.StatusUnauthorized)
	s.logf("session set cleared")

	// Fresh login and a clean logout.
	login := s.mustLogin(email, password)
	s.mustStatus(http.MethodGet, "/auth/logout", nil, login.Tokens.RefreshToken, http.StatusOK)
	s.logf("login/logout ok")

	fmt.Println("auth smoke: OK")
}

func (s *smoke) mustRegister(email, password string) authResponse {
	var out authResponse
	s.mustJSON(http.MethodPost, "/auth/register",
		map[string]string{"email": email, "password": password, "name": email},
		"", http.StatusCreated, &out)
	if out.Tokens.AccessToken == "" || out.Tokens.RefreshToken == "" {
		fatalf("register returned an incomplete token pair")
	}
	return out
}

func (s *smoke) mustLogin(email, password string) authResponse {
	var out authResponse
	s.mustJSON(http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": password},
		"", http.StatusOK, &out)
	return out
}

func (s *smoke) mustRefresh(refresh string) tokenPair {
	var out authResponse
	s.mustJSON(http.MethodGet, "/auth/refresh", nil, refresh, http.StatusOK, &out)
	return out.Tokens
}

func (s *smoke) mustMe(access, wantEmail string) {
	var out authResponse
	s.mustJSON(http.MethodGet, "/me", nil, access, http.StatusOK, &out)
	if out.User.Email != wantEmail {
		fatalf("/me email = %q, want %q", out.User.Email, wantEmail)
	}
}

func (s *smoke) mustStatus(method, path string, body any, bearer string, want int) {
	resp := s.do(method, path, body, bearer)
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != want {
		fatalf("%s %s: status %d, want %d", method, path, resp.StatusCode, want)
	}
}

func (s *smoke) mustJSON(method, path string, body any, bearer string, want int, dst any) {
	resp := s.do(method, path, body, bearer)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		fatalf("%s %s: read body: %v", method, path, err)
	}
	if resp.StatusCode != want {
		fatalf("%s %s: status %d, want %d (body: %s)", method, path, resp.StatusCode, want, raw)
	}
	if dst != nil {
		if err := json.Unmarshal(raw, dst); err != nil {
			fatalf("%s %s: decode: %v", method, path, err)
		}
	}
}

func (s *smoke) do(method, path string, body any, bearer string) *http.Response {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, s.base+path, rd)
	if err != nil {
		fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (s *smoke) logf(format string, args ...any) {
	if s.verbose {
		fmt.Printf(format+"\n", args...)
	}
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "auth smoke: FAIL: "+format+"\n", args...)
	os.Exit(1)
}
