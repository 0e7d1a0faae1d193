// Package google verifies Google identity assertions and drives the
// authorization-code flow for browser sign-in.
//
// Two entry points exist: Verifier checks a raw ID token posted by a client
// that already ran the flow (the mobile/SPA path), and Flow exchanges an
// authorization code for an ID token server-side (the redirect path). Both
// end in the same place, a verified Identity handed to the session service.
package google
