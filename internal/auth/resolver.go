package auth

import (
	"context"
	"strings"
)

// PermissionResolver answers "does role X hold permission Y" by relational
// lookup. It performs reads only and is safe for concurrent use.
type PermissionResolver struct {
	store Store
}

func NewPermissionResolver(store Store) *PermissionResolver {
	return &PermissionResolver{store: store}
}

// HasPermission returns the allow/deny decision for (role, permission).
// Unknown roles and unknown permission names resolve to deny, not error.
// The returned error is reserved for storage failure; callers must treat
// it as deny (fail closed).
func (r *PermissionResolver) HasPermission(ctx context.Context, role Role, permission string) (bool, error) {
	permission = strings.TrimSpace(permission)
	if permission == "" || !role.Valid() {
		return false, nil
	}
	return r.store.HasRolePermission(ctx, role.Base(), permission)
}
