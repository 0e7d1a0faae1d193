package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is bcrypt's hard input limit. Longer inputs are rejected
// up front instead of being silently truncated by the primitive.
const maxPasswordBytes = 72

// Hash returns a bcrypt digest of plain using the configured cost.
//
// Security contract:
// - The plaintext is never logged or returned beyond the digest.
// - Empty passwords are rejected; emptiness is reserved for identities that
//   authenticate only via external federation and have no local credential.
func (c Config) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrPasswordEmpty
	}
	if len(plain) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	cost := c.Cost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultConfig().Cost
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plain matches the stored bcrypt digest.
//
// A malformed digest returns (false, ErrInvalidHash); a simple mismatch
// returns (false, nil) so callers can treat both uniformly as bad credentials.
func Verify(plain, digest string) (bool, error) {
	if digest == "" {
		// Federated identities store an empty hash; no local password ever matches.
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	case errors.Is(err, bcrypt.ErrHashTooShort):
		return false, ErrInvalidHash
	default:
		var hv bcrypt.HashVersionTooNewError
		var iv bcrypt.InvalidHashPrefixError
		if errors.As(err, &hv) || errors.As(err, &iv) {
			return false, ErrInvalidHash
		}
		return false, err
	}
}

// Hash is a convenience that hashes with env-derived configuration.
func Hash(plain string) (string, error) {
	return FromEnv().Hash(plain)
}
