package session

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL (mosaic.refresh_tokens).
//
// The allow-list is a row-per-token arena keyed by user id. Replace runs the
// pull/push inside one transaction: the DELETE takes a row lock, so a
// concurrent Replace on the same digest serializes behind it and then sees
// zero affected rows.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgSchemaRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the allow-list (default "mosaic").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" || !pgSchemaRe.MatchString(schema) {
			return fmt.Errorf("session: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore creates a Postgres-backed allow-list store.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "mosaic"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("session: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "refresh_tokens"}.Sanitize()
}

// Add inserts a token digest for the user.
func (s *PostgresStore) Add(ctx context.Context, userID, tokenHash string, now time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (token_hash, user_id, created_at)
		 VALUES ($1, $2, $3)`,
		tokenHash, userID, now,
	)
	return err
}

// Replace atomically removes oldHash and inserts newHash.
func (s *PostgresStore) Replace(ctx context.Context, userID, oldHash, newHash string, now time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		`DELETE FROM `+s.table()+`
		  WHERE user_id = $1 AND token_hash = $2`,
		userID, oldHash,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		// Nothing inserted; the rollback leaves the allow-list untouched.
		return ErrNotInAllowList
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO `+s.table()+` (token_hash, user_id, created_at)
		 VALUES ($1, $2, $3)`,
		newHash, userID, now,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Remove deletes one token digest and reports whether it was present.
func (s *PostgresStore) Remove(ctx context.Context, userID, tokenHash string) (bool, error) {
	ct, err := s.pool.Exec(ctx,
		`DELETE FROM `+s.table()+`
		  WHERE user_id = $1 AND token_hash = $2`,
		userID, tokenHash,
	)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// Clear removes every token digest for the user (idempotent).
func (s *PostgresStore) Clear(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM `+s.table()+` WHERE user_id = $1`,
		userID,
	)
	return err
}

// Count reports the allow-list size for a user.
func (s *PostgresStore) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM `+s.table()+` WHERE user_id = $1`,
		userID,
	).Scan(&n)
	return n, err
}
