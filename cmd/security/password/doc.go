// Package password provides password hashing primitives for Mosaic.
//
// It is the single source of truth for credential hashing behavior.
//
// Design goals:
// - bcrypt with a tunable work factor (default cost 10, interactive latency).
// - Stable modular-crypt output suitable for storage as-is.
// - Verification never distinguishes "bad hash" from "wrong password" to callers
//   beyond a boolean; detailed errors stay inside this package.
//
// Environment:
// - MOSAIC_PASSWORD_BCRYPT_COST: overrides the work factor within bcrypt's legal range.
package password
