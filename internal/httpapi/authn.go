package httpapi

import (
	"net/http"

	"dishpatch.dev/internal/auth"
)

const authHeader = "Authorization"

// Paths reachable without a bearer token. Everything else under the mux
// requires a verified access token.
var publicPaths = []string{
	"/v1/auth/register",
	"/v1/auth/login",
	"/v1/auth/social",
	"/v1/auth/refresh",
	"/v1/info",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

// withAuth extracts the bearer token, verifies it as an access token, and
// attaches the resulting principal to the request context. Refresh tokens
// presented here fail verification: the gate only accepts the access type.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := auth.ExtractBearer(r.Header.Get(authHeader))
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="dishpatch"`)
			writeError(w, r, http.StatusUnauthorized, "missing bearer token")
			return
		}

		principal, err := a.tokens.VerifyAccess(token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="dishpatch"`)
			writeAuthError(w, r, err)
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// principalOr401 pulls the authenticated principal off the context; a miss
// means the route was registered outside the gate, which is a wiring bug,
// but the caller still gets a clean 401.
func (a *API) principalOr401(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", `Bearer realm="dishpatch"`)
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return auth.Principal{}, false
	}
	return principal, true
}

// requirePermission enforces a catalog check and writes the 403 itself on
// denial.
func (a *API) requirePermission(w http.ResponseWriter, r *http.Request, principal auth.Principal, check auth.PermissionCheck) bool {
	if a.policy.HasPermission(principal, check) {
		return true
	}
	writeAuthError(w, r, auth.ErrInsufficientPermissions)
	return false
}

// requireRoleOrHigher enforces a minimum position in the role hierarchy.
func (a *API) requireRoleOrHigher(w http.ResponseWriter, r *http.Request, principal auth.Principal, minimum auth.Role) bool {
	if a.policy.HasRoleOrHigher(principal, minimum) {
		return true
	}
	writeAuthError(w, r, auth.ErrInsufficientPermissions)
	return false
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
