package auth

import "context"

// ScopeResolver walks a record's ownership chain up to its organization:
// residence -> building -> organization, or building -> organization.
type ScopeResolver struct {
	store Store
}

func NewScopeResolver(store Store) *ScopeResolver {
	return &ScopeResolver{store: store}
}

// ResolveOrganization returns the owning organization id, or "" when the
// chain is broken or the record carries neither residence nor building
// scope. A broken chain is a valid deny-path input for the policy engine,
// so it short-circuits to "" instead of erroring; the error return is for
// storage failure only.
func (s *ScopeResolver) ResolveOrganization(ctx context.Context, doc *Document) (string, error) {
	if doc == nil {
		return "", nil
	}
	return s.resolve(ctx, doc.ResidenceID, doc.BuildingID)
}

// ResolveCreateScope resolves the organization of a creation target.
func (s *ScopeResolver) ResolveCreateScope(ctx context.Context, scope CreateScope) (string, error) {
	return s.resolve(ctx, scope.ResidenceID, scope.BuildingID)
}

func (s *ScopeResolver) resolve(ctx context.Context, residenceID, buildingID string) (string, error) {
	// ResidenceID takes precedence when both pointers are set.
	if residenceID != "" {
		res, err := s.store.GetResidence(ctx, residenceID)
		if err != nil {
			return "", err
		}
		if res == nil {
			return "", nil
		}
		buildingID = res.BuildingID
	}
	if buildingID == "" {
		return "", nil
	}
	b, err := s.store.GetBuilding(ctx, buildingID)
	if err != nil {
		return "", err
	}
	if b == nil {
		return "", nil
	}
	return b.OrganizationID, nil
}
