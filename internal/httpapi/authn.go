package httpapi

import (
	"errors"
	"net/http"

	"kotiva.org/internal/auth"
)

// RequireAuth authenticates the session cookie and attaches the principal.
// Authentication is strict: only a provably valid session with a live,
// active user passes. Everything downstream of the user lookup that fails
// soft (cache, memberships, touch) degrades without blocking the request.
func (a *API) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := a.deps.Sessions.FromRequest(r)
		if err != nil {
			if errors.Is(err, auth.ErrNoSession) {
				writeAPIError(w, r, http.StatusUnauthorized, "AUTH_REQUIRED", "authentication required", nil)
				return
			}
			writeAPIError(w, r, http.StatusInternalServerError, "AUTH_ERROR", "authentication failed", nil)
			return
		}
		ctx := r.Context()

		// Freshness guarantee: drop any cached user snapshot before the
		// authoritative read, so a deactivation or role change is never
		// served from cache.
		if a.deps.Cache != nil {
			_ = a.deps.Cache.Invalidate(ctx, "user", sess.UserID)
			_ = a.deps.Cache.Invalidate(ctx, "user_email", "*")
		}

		user, err := a.deps.Store.GetUser(ctx, sess.UserID)
		if err != nil {
			writeAPIError(w, r, http.StatusInternalServerError, "AUTH_ERROR", "authentication failed", nil)
			return
		}
		if user == nil || !user.IsActive {
			// The session is dead weight once its user is gone or disabled;
			// destroy it now rather than waiting for expiry.
			_ = a.deps.Sessions.Destroy(ctx, sess.ID)
			http.SetCookie(w, a.deps.Sessions.ClearCookie())
			writeAPIError(w, r, http.StatusUnauthorized, "USER_INACTIVE", "account is inactive", nil)
			return
		}

		principal := auth.Principal{User: user}
		memberships, err := a.deps.Store.GetMemberships(ctx, user.ID)
		if err == nil {
			for _, m := range memberships {
				principal.Organizations = append(principal.Organizations, m.OrganizationID)
				if m.CanAccessAllOrganizations {
					principal.CanAccessAllOrganizations = true
				}
			}
		}
		if len(principal.Organizations) == 0 && user.Role.IsDemo() {
			if org, err := a.deps.Store.FirstDemoOrganization(ctx); err == nil && org != nil {
				principal.Organizations = append(principal.Organizations, org.ID)
			}
		}

		if touched, extended := a.deps.Sessions.Touch(ctx, sess); extended {
			if c, err := a.deps.Sessions.Cookie(touched); err == nil {
				http.SetCookie(w, c)
			}
		}

		next(w, r.WithContext(auth.ContextWithPrincipal(ctx, principal)))
	}
}
