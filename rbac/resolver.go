package rbac

import (
	"strings"
)

// AccessContext carries request-scoped facts the resolver may consult, most
// importantly the owner of the target resource for "own_" permissions.
type AccessContext struct {
	// OwnerUserID is the user that owns the target resource, e.g. the
	// patient a profile belongs to.
	OwnerUserID string
	// Attributes holds additional facts for scope predicates (assigned ward,
	// department, care team).
	Attributes map[string]string
}

// ScopePredicate refines an explicit "action:resource" grant for one
// (role, resource) pair. Returning false denies the access even though the
// role holds the permission.
type ScopePredicate func(userID string, actx *AccessContext) bool

// EndpointRule maps one (HTTP method, path) pair to its required permission.
type EndpointRule struct {
	Method     string
	Path       string
	Permission string
}

type endpointKey struct {
	method string
	path   string
}

type scopeKey struct {
	role     string
	resource string
}

// Resolver answers permission and endpoint checks. Construct with
// [NewResolver]; the value is immutable afterwards.
type Resolver struct {
	grants    map[string]map[string]struct{}
	permLists map[string][]string
	endpoints map[endpointKey]string
	scopes    map[scopeKey]ScopePredicate
}

// Option configures a [Resolver] at construction time.
type Option func(*Resolver)

// WithScopePredicate registers a contextual refinement for explicit grants
// of the given role on the given resource.
func WithScopePredicate(role, resource string, p ScopePredicate) Option {
	return func(r *Resolver) {
		if p != nil {
			r.scopes[scopeKey{role: role, resource: resource}] = p
		}
	}
}

// NewResolver copies the role→permission map and endpoint table into
// immutable resolver state. Unknown roles simply hold no permissions.
func NewResolver(roles map[string][]string, endpoints []EndpointRule, opts ...Option) *Resolver {
	r := &Resolver{
		grants:    make(map[string]map[string]struct{}, len(roles)),
		permLists: make(map[string][]string, len(roles)),
		endpoints: make(map[endpointKey]string, len(endpoints)),
		scopes:    make(map[scopeKey]ScopePredicate),
	}

	for role, perms := range roles {
		set := make(map[string]struct{}, len(perms))
		list := make([]string, 0, len(perms))
		for _, p := range perms {
			if _, dup := set[p]; dup {
				continue
			}
			set[p] = struct{}{}
			list = append(list, p)
		}
		r.grants[role] = set
		r.permLists[role] = list
	}

	for _, rule := range endpoints {
		key := endpointKey{method: strings.ToUpper(rule.Method), path: rule.Path}
		r.endpoints[key] = rule.Permission
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// KnownRole reports whether the role was registered at construction.
func (r *Resolver) KnownRole(role string) bool {
	_, ok := r.grants[role]
	return ok
}

// Permissions returns the role's permission list as registered. The slice
// is shared; callers must not mutate it.
func (r *Resolver) Permissions(role string) []string {
	return r.permLists[role]
}

// HasPermission reports whether a user with the given role may perform
// action on resource.
//
// Resolution order: wildcard grant, explicit grant (refined by a scope
// predicate when one is registered), self-scoped grant (requires actx to
// identify the acting user as the owner). Anything else is denied.
func (r *Resolver) HasPermission(userID, role, resource, action string, actx *AccessContext) bool {
	granted, ok := r.grants[role]
	if !ok {
		return false
	}

	if _, ok := granted[action+":all"]; ok {
		return true
	}

	if _, ok := granted[action+":"+resource]; ok {
		if pred, ok := r.scopes[scopeKey{role: role, resource: resource}]; ok {
			return pred(userID, actx)
		}
		return true
	}

	if _, ok := granted[action+":own_"+resource]; ok {
		return actx != nil && actx.OwnerUserID != "" && actx.OwnerUserID == userID
	}

	return false
}

// RequiredPermission returns the permission mapped to (method, path), or
// false when the endpoint is not in the table.
func (r *Resolver) RequiredPermission(method, path string) (string, bool) {
	perm, ok := r.endpoints[endpointKey{method: strings.ToUpper(method), path: path}]
	return perm, ok
}

// CanAccessEndpoint checks (method, path) against the endpoint table and
// delegates to [Resolver.HasPermission]. Endpoints absent from the table are
// denied for every role.
func (r *Resolver) CanAccessEndpoint(userID, role, method, path string, actx *AccessContext) bool {
	perm, ok := r.RequiredPermission(method, path)
	if !ok {
		return false
	}

	action, resource, ok := SplitPermission(perm)
	if !ok {
		return false
	}

	// Self-scoped table entries check against the bare resource name.
	resource = strings.TrimPrefix(resource, "own_")

	return r.HasPermission(userID, role, resource, action, actx)
}

// SplitPermission splits "action:resource" into its parts.
func SplitPermission(perm string) (action, resource string, ok bool) {
	action, resource, found := strings.Cut(perm, ":")
	if !found || action == "" || resource == "" {
		return "", "", false
	}
	return action, resource, true
}
