// Package app wires the Mosaic server runtime: config, logging, stores,
// auth routes, and metrics.
//
// It is intentionally small and deterministic to keep CI gates strict and
// behavior predictable.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"mosaic/cmd/identity"
	authapi "mosaic/cmd/internal/auth/api"
	"mosaic/cmd/internal/auth/google"
	"mosaic/cmd/internal/auth/session"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a small app-level lifecycle abstraction.
// It exists to allow DB-backed resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// nopStore is used for in-memory store mode.
type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

type dbStore struct {
	pool *pgxpool.Pool
}

func (s dbStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// App is the Mosaic server runtime: it owns the HTTP server wiring and the
// auth subsystem's dependencies.
type App struct {
	cfg Config
	log Logger

	store Store

	dbPool    *pgxpool.Pool
	dbEnabled bool

	auth *authapi.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	st, dbPool, dbEnabled, err := newStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	auth, err := newAuthHandler(log, dbPool, dbEnabled)
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		store:     st,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		auth:      auth,
	}, nil
}

// newAuthHandler builds the identity store, session service, and HTTP
// handler over either Postgres or the in-memory stores.
func newAuthHandler(log Logger, dbPool *pgxpool.Pool, dbEnabled bool) (*authapi.Handler, error) {
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	var (
		users identity.Store
		allow session.Store
	)
	if dbEnabled {
		pgUsers, err := identity.NewPostgresStore(dbPool)
		if err != nil {
			return nil, err
		}
		pgAllow, err := session.NewPostgresStore(dbPool)
		if err != nil {
			return nil, err
		}
		users, allow = pgUsers, pgAllow
	} else {
		users, allow = identity.NewMemoryStore(), session.NewMemoryStore()
	}

	tokens, err := session.NewJWTManager(sessCfg)
	if err != nil {
		return nil, err
	}
	svc, err := session.NewService(sessCfg, users, allow, tokens)
	if err != nil {
		return nil, err
	}

	var opts []authapi.HandlerOption
	gcfg := google.LoadConfigFromEnv()
	if gcfg.Enabled() {
		verifier, err := google.NewVerifier(gcfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, authapi.WithGoogleVerifier(verifier))

		if gcfg.RedirectEnabled() {
			flow, err := google.NewFlow(gcfg, verifier)
			if err != nil {
				return nil, err
			}
			opts = append(opts, authapi.WithGoogleFlow(flow))
		}
		log.Info("auth.google.enabled", "redirect_flow", gcfg.RedirectEnabled())
	}

	return authapi.NewHandler(log, authapi.LoadConfigFromEnv(), users, svc, opts...)
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.auth)

	handler := WithSecurityHeaders(mux)
	handler = WithCORS(handler, a.cfg, a.log)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between Postgres-backed persistence and the in-memory dev
// store.
func newStore(ctx context.Context, cfg Config, log Logger) (Store, *pgxpool.Pool, bool, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return nopStore{}, nil, false, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, err
	}

	log.Info("db.enabled.postgres_store")
	return dbStore{pool: pool}, pool, true, nil
}
