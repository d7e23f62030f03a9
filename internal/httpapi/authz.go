package httpapi

import (
	"net/http"

	"kotiva.org/internal/auth"
	"kotiva.org/internal/obs"
)

// RequireRole gates a handler on an explicit role allow-list. Demo variants
// pass wherever their base role does. Must run inside RequireAuth.
func (a *API) RequireRole(allowed []auth.Role, next http.HandlerFunc) http.HandlerFunc {
	allowedSet := make(map[auth.Role]bool, len(allowed))
	for _, role := range allowed {
		allowedSet[role.Base()] = true
	}
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok || principal.User == nil {
			writeAPIError(w, r, http.StatusUnauthorized, "NOT_AUTHENTICATED", "authentication required", nil)
			return
		}
		if !allowedSet[principal.User.Role.Base()] {
			obs.CountDenial("role")
			required := make([]string, 0, len(allowed))
			for _, role := range allowed {
				required = append(required, role.String())
			}
			writeAPIError(w, r, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "insufficient permissions", map[string]any{
				"required": required,
				"current":  principal.User.Role.String(),
			})
			return
		}
		next(w, r)
	}
}

// RequirePermission gates a handler on a relational permission lookup.
// A storage failure denies with 500 rather than letting the request through.
func (a *API) RequirePermission(permission string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok || principal.User == nil {
			writeAPIError(w, r, http.StatusUnauthorized, "NOT_AUTHENTICATED", "authentication required", nil)
			return
		}
		allowed, err := a.deps.Resolver.HasPermission(r.Context(), principal.User.Role, permission)
		if err != nil {
			obs.CountDenial("permission")
			writeAPIError(w, r, http.StatusInternalServerError, "AUTHORIZATION_ERROR", "authorization check failed", nil)
			return
		}
		if !allowed {
			obs.CountDenial("permission")
			writeAPIError(w, r, http.StatusForbidden, "PERMISSION_DENIED", "permission denied", map[string]any{
				"required": permission,
				"current":  principal.User.Role.String(),
			})
			return
		}
		next(w, r)
	}
}
