// Package session provides TTL-bound session persistence for the clinauth
// engine, with compact binary encoding on the Redis hot path.
//
// The [Store] interface has two implementations: [RedisStore] for
// production and [MemoryStore] for tests and single-process tooling. Both
// honor the same contract:
//
//   - a missing or expired session reads as [ErrNotFound], never as a
//     retryable fault
//   - every write refreshes the entry's TTL so session lifetime stays in
//     lockstep with refresh-token validity
//   - [Store.Consume] atomically fetches and invalidates a session; under
//     concurrent refresh of the same token exactly one caller receives the
//     record and all others observe [ErrNotFound]
//   - an unreachable backend surfaces as [ErrUnavailable]
//
// # Architecture boundaries
//
// This package owns the [Session] model and its persistence. It does not
// interpret tokens, evaluate permissions, or enforce authentication policy —
// those belong to the Engine.
package session
