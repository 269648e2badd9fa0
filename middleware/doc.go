// Package middleware exposes HTTP middleware adapters built on top of
// clinauth.Engine validation.
//
// # Guards
//
//   - [Guard] — bearer-token validation, injects the identity into the
//     request context.
//   - [RequirePermission] — Guard plus one resource/action check.
//   - [GuardEndpoints] — Guard plus the engine's endpoint permission table.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// the engine.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond what the engine reports.
package middleware
