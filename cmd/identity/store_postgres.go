package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements identity persistence over PostgreSQL.
//
// Design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are safely quoted to avoid SQL injection via identifiers.
// - Uniqueness is enforced by constraints, not pre-checks, so concurrent
//   registrations cannot race past a lookup; violations are classified into
//   ConflictError with the logical field name.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the identity store (default "mosaic").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with secure defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "mosaic",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

// CreateUser inserts a new user record.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	email := strings.TrimSpace(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" {
		return User{}, pgInvalid(op, "email is required")
	}
	if name == "" {
		return User{}, pgInvalid(op, "name is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	userID, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	users := pgIdent(s.schema, "users")

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+users+` (
		     id, email, email_norm, name, name_norm, password_hash, profile_image, created_at
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		userID,
		email,
		NormalizeEmail(email),
		name,
		NormalizeName(name),
		in.PasswordHash,
		pgTrimPtr(in.ProfileImage),
		now,
	)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	return User{
		ID:           userID,
		Email:        email,
		Name:         name,
		ProfileImage: pgTrimPtr(in.ProfileImage),
		CreatedAt:    now,
	}, nil
}

// GetUserByID loads a user record by id.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if strings.TrimSpace(id) == "" {
		return User{}, pgInvalid(op, "missing id")
	}

	users := pgIdent(s.schema, "users")

	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, profile_image, created_at
		   FROM `+users+`
		  WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.ProfileImage, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserByEmail loads a user record by normalized email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetUserByEmail"

	norm := NormalizeEmail(email)
	if norm == "" {
		return User{}, pgInvalid(op, "missing email")
	}

	users := pgIdent(s.schema, "users")

	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, profile_image, created_at
		   FROM `+users+`
		  WHERE email_norm = $1`,
		norm,
	).Scan(&u.ID, &u.Email, &u.Name, &u.ProfileImage, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserAuthByEmail loads a user record including the stored password hash.
func (s *PostgresStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	const op = "identity.GetUserAuthByEmail"

	norm := NormalizeEmail(email)
	if norm == "" {
		return UserAuth{}, pgInvalid(op, "missing email")
	}

	users := pgIdent(s.schema, "users")

	var ua UserAuth
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, profile_image, created_at, password_hash
		   FROM `+users+`
		  WHERE email_norm = $1`,
		norm,
	).Scan(&ua.User.ID, &ua.User.Email, &ua.User.Name, &ua.User.ProfileImage, &ua.User.CreatedAt, &ua.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return UserAuth{}, err
	}
	return ua, nil
}

// ---- helpers ----

func pgTrimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

// pgInvalid standardizes invalid input errors.
func pgInvalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// Prefer stable schema constraint names. Fall back to heuristic substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))

	switch c {
	case "uq_users_email_norm":
		return "email", true
	case "uq_users_name_norm":
		return "name", true
	default:
		switch {
		case strings.Contains(c, "email"):
			return "email", true
		case strings.Contains(c, "name"):
			return "name", true
		default:
			return "unique", true
		}
	}
}
