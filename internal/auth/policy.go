package auth

import "context"

// PolicyEngine decides entity-scoped document access. All four predicates
// are pure reads: identical inputs yield identical answers. Any storage
// failure inside a predicate is an explicit deny branch — an attacker who
// can degrade the database must never gain access by doing so.
type PolicyEngine struct {
	store  Store
	scopes *ScopeResolver
}

func NewPolicyEngine(store Store) *PolicyEngine {
	return &PolicyEngine{store: store, scopes: NewScopeResolver(store)}
}

// CanView is the most permissive predicate; it backs dashboards and reads.
//
// admin: always. manager: organization match. resident: residence or
// building match against the supplied memberships. tenant: same match but
// only for documents flagged visible to tenants.
func (e *PolicyEngine) CanView(ctx context.Context, p Principal, doc *Document, userResidences []Residence) bool {
	if p.User == nil || doc == nil {
		return false
	}
	switch p.User.Role.Base() {
	case RoleAdmin:
		return true
	case RoleManager:
		return e.organizationMatch(ctx, p, doc)
	case RoleResident:
		return residenceMatch(doc, userResidences)
	case RoleTenant:
		if !doc.IsVisibleToTenants {
			return false
		}
		return residenceMatch(doc, userResidences)
	default:
		return false
	}
}

// CanEdit tightens view to ownership for residents and excludes tenants
// entirely: tenants are a read-only tier.
func (e *PolicyEngine) CanEdit(ctx context.Context, p Principal, doc *Document, userResidences []Residence) bool {
	if p.User == nil || doc == nil {
		return false
	}
	switch p.User.Role.Base() {
	case RoleAdmin:
		return true
	case RoleManager:
		return e.organizationMatch(ctx, p, doc)
	case RoleResident:
		if doc.UploadedBy == p.User.ID {
			return true
		}
		return residenceMatch(doc, userResidences)
	case RoleTenant:
		return false
	default:
		return false
	}
}

// CanDelete is stricter than edit: a resident may only delete documents
// they uploaded; residence membership alone is not enough.
func (e *PolicyEngine) CanDelete(ctx context.Context, p Principal, doc *Document, _ []Residence) bool {
	if p.User == nil || doc == nil {
		return false
	}
	switch p.User.Role.Base() {
	case RoleAdmin:
		return true
	case RoleManager:
		return e.organizationMatch(ctx, p, doc)
	case RoleResident:
		return doc.UploadedBy == p.User.ID
	case RoleTenant:
		return false
	default:
		return false
	}
}

// CanCreate authorizes against a creation target. Resident membership is
// re-queried from storage instead of trusting any caller-supplied residence
// list: a create decision must not ride on an unverified parameter.
func (e *PolicyEngine) CanCreate(ctx context.Context, p Principal, scope CreateScope) bool {
	if p.User == nil {
		return false
	}
	switch p.User.Role.Base() {
	case RoleAdmin:
		return true
	case RoleManager:
		orgID, err := e.scopes.ResolveCreateScope(ctx, scope)
		if err != nil {
			return false
		}
		if orgID == "" {
			orgID = scope.OrganizationID
		}
		return p.InOrganization(orgID)
	case RoleResident:
		if scope.ResidenceID == "" {
			return false
		}
		owned, err := e.store.GetUserResidences(ctx, p.User.ID)
		if err != nil {
			return false
		}
		for _, r := range owned {
			if r.ID == scope.ResidenceID {
				return true
			}
		}
		return false
	case RoleTenant:
		return false
	default:
		return false
	}
}

func (e *PolicyEngine) organizationMatch(ctx context.Context, p Principal, doc *Document) bool {
	orgID, err := e.scopes.ResolveOrganization(ctx, doc)
	if err != nil {
		return false
	}
	if orgID == "" {
		// Organization-scoped directly; managers default-allow on match.
		orgID = doc.OrganizationID
	}
	return p.InOrganization(orgID)
}

func residenceMatch(doc *Document, userResidences []Residence) bool {
	if doc.ResidenceID != "" {
		for _, r := range userResidences {
			if r.ID == doc.ResidenceID {
				return true
			}
		}
		return false
	}
	if doc.BuildingID != "" {
		for _, r := range userResidences {
			if r.BuildingID == doc.BuildingID {
				return true
			}
		}
	}
	return false
}
