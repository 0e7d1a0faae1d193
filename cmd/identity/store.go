package identity

import (
	"context"
	"time"
)

// User is Mosaic's canonical security principal.
//
// PasswordHash is intentionally absent: it only travels on UserAuth, which is
// returned by the one lookup the login path uses. This keeps the hash out of
// every response-shaping code path by construction.
type User struct {
	ID    string
	Email string
	Name  string

	// ProfileImage is an opaque reference (path or URL); nil when unset.
	ProfileImage *string

	CreatedAt time.Time
}

// UserAuth carries the stored credential alongside the user record.
// It must never be serialized into a response payload.
type UserAuth struct {
	User         User
	PasswordHash string
}

// CreateUserInput describes a new identity record.
//
// PasswordHash is the already-hashed credential; it is empty for identities
// created via external-identity federation.
type CreateUserInput struct {
	Email        string
	Name         string
	PasswordHash string
	ProfileImage *string
	Now          time.Time
}

// Store is the identity persistence boundary (the credential store).
//
// Implementations must enforce email/name uniqueness transactionally at
// insert time and report collisions as ConflictError with the logical field.
type Store interface {
	// CreateUser creates a new user record. Email and name collisions return
	// ConflictError{Field: "email"|"name"}.
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)

	// GetUserByID loads a user record by id. Missing -> NotFoundError.
	GetUserByID(ctx context.Context, id string) (User, error)

	// GetUserByEmail loads a user record by (normalized) email. Missing -> NotFoundError.
	GetUserByEmail(ctx context.Context, email string) (User, error)

	// GetUserAuthByEmail loads a user record including the normally-hidden
	// password hash, for credential verification. Missing -> NotFoundError.
	GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error)
}
