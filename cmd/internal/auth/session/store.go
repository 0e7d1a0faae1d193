package session

import (
	"context"
	"time"
)

// Store abstracts the per-user refresh-token allow-list.
//
// Membership of a token's digest is the sole source of truth for refresh-token
// validity. Implementations must make Replace atomic: the consumed digest is
// pulled and the successor pushed in one step, so two concurrent refreshes for
// the same user can never lose a removal, and a refresh losing the race on the
// same token observes ErrNotInAllowList instead of a phantom success.
type Store interface {
	// Add inserts a token digest into the user's allow-list.
	Add(ctx context.Context, userID, tokenHash string, now time.Time) error

	// Replace atomically removes oldHash and inserts newHash for the user.
	// Returns ErrNotInAllowList (and inserts nothing) when oldHash is absent.
	Replace(ctx context.Context, userID, oldHash, newHash string, now time.Time) error

	// Remove deletes one token digest. Reports whether it was present.
	Remove(ctx context.Context, userID, tokenHash string) (bool, error)

	// Clear removes every token digest for the user (compromise handling,
	// "log out everywhere"). Idempotent.
	Clear(ctx context.Context, userID string) error

	// Count reports the allow-list size for a user.
	Count(ctx context.Context, userID string) (int, error)
}
