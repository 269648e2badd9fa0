package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	clinauth "github.com/caremesh/clinauth"
	"github.com/caremesh/clinauth/rbac"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the validated identity a guard stored on
// the request context.
func AuthResultFromContext(ctx context.Context) (*clinauth.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*clinauth.AuthResult)
	return res, ok
}

// ScopeFunc derives the access context for ownership checks from the
// request, typically by reading a path or query parameter that names the
// record owner.
type ScopeFunc func(r *http.Request) *rbac.AccessContext

// Guard validates the bearer token and injects the resulting identity into
// the request context. Missing or invalid tokens get 401; a session-store
// outage gets 503, never a silent denial.
func Guard(engine *clinauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := authenticate(engine, w, r)
			if !ok {
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission validates the bearer token and enforces a single
// resource/action permission. scope may be nil when the permission needs no
// ownership context.
func RequirePermission(engine *clinauth.Engine, resource, action string, scope ScopeFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := authenticate(engine, w, r)
			if !ok {
				return
			}

			var actx *rbac.AccessContext
			if scope != nil {
				actx = scope(r)
			}

			d := engine.AuthorizeIdentity(r.Context(), res, resource, action, actx)
			if !d.Allowed {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GuardEndpoints validates the bearer token and enforces the engine's
// endpoint permission table against the request method and path. Endpoints
// absent from the table are denied.
func GuardEndpoints(engine *clinauth.Engine, scope ScopeFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			var actx *rbac.AccessContext
			if scope != nil {
				actx = scope(r)
			}

			ctx := requestContext(r)
			d, err := engine.AuthorizeEndpoint(ctx, token, r.Method, r.URL.Path, actx)
			if err != nil {
				writeAuthError(w, err)
				return
			}
			if !d.Allowed {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(engine *clinauth.Engine, w http.ResponseWriter, r *http.Request) (*clinauth.AuthResult, bool) {
	if engine == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	res, err := engine.ValidateAccess(requestContext(r), token)
	if err != nil {
		writeAuthError(w, err)
		return nil, false
	}

	return res, true
}

func writeAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, clinauth.ErrStoreUnavailable) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// requestContext attaches client IP and user agent so engine audit events
// carry them.
func requestContext(r *http.Request) context.Context {
	ctx := clinauth.WithClientIP(r.Context(), remoteIP(r))
	return clinauth.WithUserAgent(ctx, r.UserAgent())
}

func remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
