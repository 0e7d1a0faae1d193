// Package identity implements Mosaic's identity foundation.
//
// It defines the user identity record, its persistence boundary (the
// credential store), normalization rules, and stable error kinds used by the
// HTTP layer. Password hashing and token signing live elsewhere; this package
// only stores what those components produce.
package identity
