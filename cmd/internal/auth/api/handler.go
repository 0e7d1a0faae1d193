package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"mosaic/cmd/identity"
	"mosaic/cmd/internal/auth/google"
	"mosaic/cmd/internal/auth/session"
)

// Handler wires the HTTP auth endpoints to the session service.
type Handler struct {
	log *slog.Logger
	cfg Config

	users    identity.Store
	sessions *session.Service

	verifier   google.Verifier
	googleFlow *google.Flow

	loginThrottle *loginThrottle
}

// HandlerOption configures optional auth handler dependencies.
type HandlerOption func(*Handler)

// WithGoogleVerifier enables POST /auth/google (ID-token sign-in).
func WithGoogleVerifier(v google.Verifier) HandlerOption {
	return func(h *Handler) {
		if h == nil || v == nil {
			return
		}
		h.verifier = v
	}
}

// WithGoogleFlow enables the GET /auth/google redirect flow.
func WithGoogleFlow(f *google.Flow) HandlerOption {
	return func(h *Handler) {
		if h == nil || f == nil {
			return
		}
		h.googleFlow = f
	}
}

// NewHandler constructs an auth Handler over the given stores and service.
func NewHandler(log *slog.Logger, cfg Config, users identity.Store, sessions *session.Service, opts ...HandlerOption) (*Handler, error) {
	if users == nil || sessions == nil {
		return nil, errors.New("auth: nil store or session service")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &Handler{
		log:           log,
		cfg:           cfg,
		users:         users,
		sessions:      sessions,
		loginThrottle: newLoginThrottle(cfg.LoginIPMax, cfg.LoginIPWindow),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/auth/refresh", h.handleRefresh)
	mux.HandleFunc("/auth/google", h.handleGoogle)
	mux.HandleFunc("/auth/google/callback", h.handleGoogleCallback)
	mux.Handle("/me", h.RequireAuth(http.HandlerFunc(h.handleMe)))
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	u, pair, err := h.sessions.Register(ctx, now, session.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		switch {
		case session.IsValidation(err):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case identity.IsConflict(err):
			writeError(w, http.StatusNotAcceptable, "conflict", "email or name already exists")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			h.log.Error("auth.register.fail", "err", err)
			writeError(w, http.StatusBadRequest, "register_failed", err.Error())
		}
		return
	}

	metricRegistrations.Inc()
	h.log.Info("auth.register.ok", "user_id", u.ID)

	writeJSON(w, http.StatusCreated, registerResponse{
		User:   toUserResponse(u),
		Tokens: toTokenResponse(pair),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)

	if !h.loginThrottle.allow(ip, now) {
		metricLogins.WithLabelValues("throttled").Inc()
		h.log.Warn("auth.login.throttled", "ip", ip)
		w.Header().Set("Retry-After", strconv.Itoa(int(h.cfg.LoginIPWindow/time.Second)))
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many login attempts")
		return
	}

	pair, err := h.sessions.Login(ctx, now, req.Email, req.Password)
	if err != nil {
		switch {
		case session.IsValidation(err):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, session.ErrInvalidCredentials):
			metricLogins.WithLabelValues("fail").Inc()
			h.log.Info("auth.login.fail", "ip", ip)
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password incorrect")
		default:
			h.log.Error("auth.login.fail", "err", err)
			writeError(w, http.StatusBadRequest, "login_failed", err.Error())
		}
		return
	}

	metricLogins.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, loginResponse{Tokens: toTokenResponse(pair)})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	tok, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "missing bearer refresh token")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	if err := h.sessions.Logout(ctx, now, tok); err != nil {
		switch {
		case errors.Is(err, session.ErrTokenReused):
			metricCompromiseEvents.Inc()
			h.log.Warn("auth.logout.reuse_detected", "ip", clientIP(r, h.cfg.TrustProxy))
			writeError(w, http.StatusUnauthorized, "token_reuse_detected", "session set cleared")
		case errors.Is(err, session.ErrInvalidToken):
			writeError(w, http.StatusUnauthorized, "invalid_token", "invalid refresh token")
		default:
			h.log.Error("auth.logout.fail", "err", err)
			writeError(w, http.StatusUnauthorized, "logout_failed", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, logoutResponse{LoggedOut: true})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	tok, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "missing bearer refresh token")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	pair, err := h.sessions.Refresh(ctx, now, tok)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrTokenReused):
			metricRefreshes.WithLabelValues("reuse").Inc()
			metricCompromiseEvents.Inc()
			h.log.Warn("auth.refresh.reuse_detected", "ip", clientIP(r, h.cfg.TrustProxy))
			writeError(w, http.StatusUnauthorized, "token_reuse_detected", "session set cleared")
		case errors.Is(err, session.ErrInvalidToken):
			metricRefreshes.WithLabelValues("fail").Inc()
			writeError(w, http.StatusUnauthorized, "invalid_token", "invalid refresh token")
		default:
			h.log.Error("auth.refresh.fail", "err", err)
			writeError(w, http.StatusUnauthorized, "refresh_failed", err.Error())
		}
		return
	}

	metricRefreshes.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, loginResponse{Tokens: toTokenResponse(pair)})
}

// handleGoogle serves both sign-in paths: POST carries an ID token obtained
// client-side, GET starts the server-side redirect flow.
func (h *Handler) handleGoogle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleGoogleCredential(w, r)
	case http.MethodGet:
		h.handleGoogleRedirect(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleGoogleCredential(w http.ResponseWriter, r *http.Request) {
	if h.verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "google_disabled", "google sign-in not configured")
		return
	}

	var req googleSignInRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if req.Credential == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing credential")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	id, err := h.verifier.Verify(ctx, req.Credential)
	if err != nil {
		h.log.Info("auth.google.verify.fail")
		writeError(w, http.StatusBadRequest, "invalid_assertion", "google credential rejected")
		return
	}

	u, pair, err := h.externalLogin(w, ctx, now, id)
	if err != nil {
		return
	}

	metricLogins.WithLabelValues("google").Inc()
	writeJSON(w, http.StatusOK, registerResponse{
		User:   toUserResponse(u),
		Tokens: toTokenResponse(pair),
	})
}

func (h *Handler) handleGoogleRedirect(w http.ResponseWriter, r *http.Request) {
	if h.googleFlow == nil {
		writeError(w, http.StatusServiceUnavailable, "google_disabled", "google sign-in not configured")
		return
	}

	state, err := google.NewState()
	if err != nil {
		h.log.Error("auth.google.state.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "mosaic_oauth_state",
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.googleFlow.AuthCodeURL(state), http.StatusFound)
}

func (h *Handler) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.googleFlow == nil {
		writeError(w, http.StatusServiceUnavailable, "google_disabled", "google sign-in not configured")
		return
	}

	// Any failure past this point sends the browser back to the root rather
	// than surfacing an API error page.
	q := r.URL.Query()
	state := q.Get("state")
	code := q.Get("code")

	cookie, err := r.Cookie("mosaic_oauth_state")
	if err != nil || state == "" || cookie.Value != state || code == "" {
		h.log.Info("auth.google.callback.state_mismatch")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	id, err := h.googleFlow.Exchange(ctx, code)
	if err != nil {
		h.log.Info("auth.google.callback.exchange_fail")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	_, pair, err := h.sessions.ExternalLogin(ctx, now, session.ExternalLoginInput{
		Email:         id.Email,
		EmailVerified: id.EmailVerified,
		ProfileImage:  optional(id.Picture),
	})
	if err != nil {
		h.log.Info("auth.google.callback.login_fail")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	metricLogins.WithLabelValues("google").Inc()
	writeJSON(w, http.StatusOK, loginResponse{Tokens: toTokenResponse(pair)})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID, ok := UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "missing subject")
		return
	}

	u, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if identity.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "invalid_token", "unknown subject")
			return
		}
		h.log.Error("auth.me.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: toUserResponse(u)})
}

// externalLogin runs ExternalLogin and writes the error response on failure.
func (h *Handler) externalLogin(w http.ResponseWriter, ctx context.Context, now time.Time, id google.Identity) (identity.User, session.TokenPair, error) {
	u, pair, err := h.sessions.ExternalLogin(ctx, now, session.ExternalLoginInput{
		Email:         id.Email,
		EmailVerified: id.EmailVerified,
		ProfileImage:  optional(id.Picture),
	})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNoVerifiedEmail):
			writeError(w, http.StatusUnauthorized, "no_verified_email", "google account has no verified email")
		case identity.IsConflict(err):
			writeError(w, http.StatusNotAcceptable, "conflict", "email or name already exists")
		default:
			h.log.Error("auth.google.login.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return identity.User{}, session.TokenPair{}, err
	}
	return u, pair, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
