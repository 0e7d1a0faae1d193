// Package token provides token hashing primitives for Mosaic.
//
// It is the single source of truth for refresh-token allow-list hashing.
// The allow-list stores only digests of refresh tokens, never the signed
// tokens themselves, so a leaked database dump cannot replay sessions.
//
// Design goals:
// - Default dev/back-compat mode: SHA-256(token) when no HMAC key is configured.
// - Production-enforced mode: HMAC-SHA256(token, key) when policy requires it.
// - Stable 64-char hex output for storage and exact-match lookup.
//
// Environment:
// - MOSAIC_TOKEN_HMAC_KEY: when set, enables HMAC mode.
// Policy:
//   - If MOSAIC_REQUIRE_TOKEN_HMAC=true, callers MUST enforce a minimum key
//     size (>= 32 bytes) and MUST use HMAC (no SHA fallback).
package token
