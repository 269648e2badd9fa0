// Package token signs and verifies the compact, expiring tokens issued by
// the clinauth engine.
//
// Two token kinds exist, each signed with its own HS256 secret so that
// compromise of one cannot forge the other:
//
//   - access tokens carry user id, role, session id, and the resolved
//     permission list; they are short-lived and validated on every request
//   - refresh tokens carry user id, session id, and a monotonic token
//     version; they are long-lived, bound to a server-side session, and
//     single-use per rotation
//
// Claims are closed typed structures; tokens whose payload does not match
// the schema are rejected on decode. Signature comparison is constant-time
// (HMAC verification inside golang-jwt).
//
// # What this package must NOT do
//
//   - Touch the session store or make authorization decisions.
//   - Import any other clinauth package.
package token
