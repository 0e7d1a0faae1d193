package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the dev/test allow-list used when no database is configured.
// A single mutex serializes all mutations, which makes Replace trivially atomic.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]map[string]time.Time // user_id -> token_hash -> created_at
}

// NewMemoryStore constructs an in-memory Store implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]map[string]time.Time)}
}

// Add inserts a token digest for the user.
func (s *MemoryStore) Add(ctx context.Context, userID, tokenHash string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.users[userID]
	if set == nil {
		set = make(map[string]time.Time)
		s.users[userID] = set
	}
	set[tokenHash] = now
	return nil
}

// Replace atomically removes oldHash and inserts newHash.
func (s *MemoryStore) Replace(ctx context.Context, userID, oldHash, newHash string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.users[userID]
	if set == nil {
		return ErrNotInAllowList
	}
	if _, ok := set[oldHash]; !ok {
		return ErrNotInAllowList
	}
	delete(set, oldHash)
	set[newHash] = now
	return nil
}

// Remove deletes one token digest and reports whether it was present.
func (s *MemoryStore) Remove(ctx context.Context, userID, tokenHash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.users[userID]
	if set == nil {
		return false, nil
	}
	if _, ok := set[tokenHash]; !ok {
		return false, nil
	}
	delete(set, tokenHash)
	return true, nil
}

// Clear removes every token digest for the user (idempotent).
func (s *MemoryStore) Clear(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, userID)
	return nil
}

// Count reports the allow-list size for a user.
func (s *MemoryStore) Count(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.users[userID]), nil
}
