package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a dev/test fallback used when no database is configured.
// It mirrors the PostgresStore contract, including uniqueness classification.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]memUser
	byEmail map[string]string // email_norm -> id
	byName  map[string]string // name_norm -> id
}

type memUser struct {
	user User
	hash string
}

// NewMemoryStore constructs an in-memory Store implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]memUser),
		byEmail: make(map[string]string),
		byName:  make(map[string]string),
	}
}

// CreateUser creates a new user record, enforcing email/name uniqueness.
func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	email := NormalizeEmail(in.Email)
	name := NormalizeName(in.Name)
	if email == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "email is required"}
	}
	if name == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "name is required"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return User{}, ConflictError{Op: op, Field: "email"}
	}
	if _, exists := s.byName[name]; exists {
		return User{}, ConflictError{Op: op, Field: "name"}
	}

	u := User{
		ID:           id,
		Email:        in.Email,
		Name:         in.Name,
		ProfileImage: in.ProfileImage,
		CreatedAt:    now,
	}
	s.byID[id] = memUser{user: u, hash: in.PasswordHash}
	s.byEmail[email] = id
	s.byName[name] = id

	return u, nil
}

// GetUserByID loads a user record by id.
func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.byID[id]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return mu.user, nil
}

// GetUserByEmail loads a user record by normalized email.
func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	ua, err := s.GetUserAuthByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	return ua.User, nil
}

// GetUserAuthByEmail loads a user record including the stored password hash.
func (s *MemoryStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	const op = "identity.GetUserAuthByEmail"

	if err := ctx.Err(); err != nil {
		return UserAuth{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
	}
	mu := s.byID[id]
	return UserAuth{User: mu.user, PasswordHash: mu.hash}, nil
}
