// Package rbac resolves role-based access decisions for the clinauth engine.
//
// Permissions are strings of the form "action:resource" (read:patients) or
// the self-scoped "action:own_resource" (update:own_profile). Wildcards
// ("read:all", "create:all", "update:all", "delete:all") satisfy any check
// for their action and are reserved for administrative roles.
//
// The [Resolver] is built once from a role→permission map and an
// endpoint→permission table, both copied into immutable internal state; it
// is stateless per call and safe for concurrent use. Endpoints absent from
// the table are denied, no matter the role — the table fails closed.
//
// Clinical scoping (a doctor or nurse restricted to assigned patients) is a
// pluggable [ScopePredicate] per (role, resource) pair, not a built-in rule;
// when no predicate is registered an explicit "action:resource" grant stands
// on its own.
package rbac
