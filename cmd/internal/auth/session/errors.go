package session

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidToken is returned when a token fails signature or expiry verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidCredentials is returned for unknown email and wrong password alike.
	// The single error prevents user enumeration via the login endpoint.
	ErrInvalidCredentials = errors.New("email or password incorrect")

	// ErrTokenReused is returned when a refresh token passes signature
	// verification but is absent from its owner's allow-list. By the time the
	// caller sees this error, every session of that user has been invalidated.
	ErrTokenReused = errors.New("refresh token reuse detected")

	// ErrNotInAllowList is the store-level signal that an atomic replace found
	// no row for the consumed token. The service translates it into reuse handling.
	ErrNotInAllowList = errors.New("refresh token not in allow-list")

	// ErrNoVerifiedEmail is returned when an external assertion verifies but
	// carries no verified email address to key the local identity on.
	ErrNoVerifiedEmail = errors.New("no verified email in external assertion")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// ValidationError reports missing required request fields.
type ValidationError struct {
	Fields []string
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "missing required fields"
	}
	return "missing " + strings.Join(e.Fields, " or ")
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
