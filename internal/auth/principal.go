package auth

import "context"

// Principal is the authenticated-user context produced by the session
// authenticator and threaded explicitly through every downstream decision.
type Principal struct {
	User                      *User
	Organizations             []string
	CanAccessAllOrganizations bool
}

// InOrganization reports whether the principal may act within the given
// organization, honoring the all-organizations super-grant.
func (p Principal) InOrganization(orgID string) bool {
	if orgID == "" {
		return false
	}
	if p.CanAccessAllOrganizations {
		return true
	}
	for _, id := range p.Organizations {
		if id == orgID {
			return true
		}
	}
	return false
}

type principalContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &principal)
}

// PrincipalFromContext extracts the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	v, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || v == nil {
		return Principal{}, false
	}
	return *v, true
}

// UserIDFromContext returns the authenticated user id, for audit trails.
func UserIDFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.User == nil {
		return "", false
	}
	return p.User.ID, true
}
