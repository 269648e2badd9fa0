// Package clinauth provides the authentication and access-control core for
// clinical applications: Argon2id credential verification with account
// lockout, JWT access tokens, rotating refresh tokens, Redis-backed session
// lifecycle, and a default-deny role/permission resolver.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// clinauth is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (TokenPair, AuthResult, Decision, SessionInfo). Token
// encoding, session storage, password hashing, and permission resolution
// live in the token, session, password, and rbac sub-packages; credential
// persistence is supplied by the host through [CredentialStore].
//
// # What this package must NOT do
//
//   - Expose Redis clients, session encodings, or JWT internals in its
//     public API.
//   - Treat a store outage as an authorization decision: infrastructure
//     faults surface as [ErrStoreUnavailable], never as a silent deny or
//     allow.
//   - Reveal whether a login failed on the email or on the password.
package clinauth
