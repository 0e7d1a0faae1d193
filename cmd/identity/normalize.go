package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeName performs case-insensitive canonicalization of display names
// used as a login-unique key. Additional rules (unicode confusables) can be
// added later behind a versioned policy.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
