package auth

import (
	"fmt"
	"strings"
)

// Role is the closed set of privilege tiers. Ordering of privilege is
// admin > manager > resident > tenant, but no gate ever infers that order:
// every check names its roles explicitly.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleResident Role = "resident"
	RoleTenant   Role = "tenant"

	RoleDemoManager  Role = "demo_manager"
	RoleDemoResident Role = "demo_resident"
	RoleDemoTenant   Role = "demo_tenant"
)

const demoPrefix = "demo_"

// Roles lists every valid role value.
var Roles = []Role{
	RoleAdmin,
	RoleManager,
	RoleResident,
	RoleTenant,
	RoleDemoManager,
	RoleDemoResident,
	RoleDemoTenant,
}

// ParseRole validates a stored or transmitted role string.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.TrimSpace(strings.ToLower(raw)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
	return r, nil
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleResident, RoleTenant,
		RoleDemoManager, RoleDemoResident, RoleDemoTenant:
		return true
	}
	return false
}

// IsDemo reports whether r is a demo-provisioned variant.
func (r Role) IsDemo() bool {
	return strings.HasPrefix(string(r), demoPrefix)
}

// Base strips the demo prefix. Demo roles carry the capability matrix of
// their base role inside this engine; write exclusion for demo accounts is
// enforced by the provisioning layer, not here.
func (r Role) Base() Role {
	if r.IsDemo() {
		return Role(strings.TrimPrefix(string(r), demoPrefix))
	}
	return r
}

func (r Role) String() string { return string(r) }
