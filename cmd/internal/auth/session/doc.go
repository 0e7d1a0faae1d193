// Package session implements Mosaic's session manager.
//
// It orchestrates registration, login, logout, refresh rotation, and
// external-identity sign-in over the identity store and the refresh-token
// allow-list. Access and refresh tokens are signed JWTs with separate
// secrets; refresh tokens are single-use and tracked server-side by digest,
// so presenting a rotated-out token invalidates every session of its owner.
package session
