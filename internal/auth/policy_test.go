package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func policyStore() *stubStore {
	// Topology: org-a owns bld-a owns res-a; org-b owns bld-b owns res-b.
	buildings := map[string]*Building{
		"bld-a": {ID: "bld-a", OrganizationID: "org-a"},
		"bld-b": {ID: "bld-b", OrganizationID: "org-b"},
	}
	residences := map[string]*Residence{
		"res-a": {ID: "res-a", BuildingID: "bld-a"},
		"res-b": {ID: "res-b", BuildingID: "bld-b"},
	}
	return &stubStore{
		getBuilding: func(_ context.Context, id string) (*Building, error) {
			return buildings[id], nil
		},
		getResidence: func(_ context.Context, id string) (*Residence, error) {
			return residences[id], nil
		},
	}
}

func principalWith(role Role, orgs ...string) Principal {
	return Principal{
		User:          &User{ID: "user-1", Role: role, IsActive: true},
		Organizations: orgs,
	}
}

func TestCanViewMatrix(t *testing.T) {
	engine := NewPolicyEngine(policyStore())
	ctx := context.Background()

	docResA := &Document{ID: "doc-1", ResidenceID: "res-a", UploadedBy: "someone", IsVisibleToTenants: true}
	docHidden := &Document{ID: "doc-2", ResidenceID: "res-a", UploadedBy: "someone", IsVisibleToTenants: false}
	docBldA := &Document{ID: "doc-3", BuildingID: "bld-a", IsVisibleToTenants: true}
	myResidences := []Residence{{ID: "res-a", BuildingID: "bld-a"}}

	assert.True(t, engine.CanView(ctx, principalWith(RoleAdmin), docHidden, nil), "admin sees everything")

	assert.True(t, engine.CanView(ctx, principalWith(RoleManager, "org-a"), docResA, nil))
	assert.False(t, engine.CanView(ctx, principalWith(RoleManager, "org-b"), docResA, nil), "manager outside owning org")

	assert.True(t, engine.CanView(ctx, principalWith(RoleResident), docResA, myResidences))
	assert.True(t, engine.CanView(ctx, principalWith(RoleResident), docBldA, myResidences), "building-scoped match via residence's building")
	assert.False(t, engine.CanView(ctx, principalWith(RoleResident), docResA, nil), "no residence membership")

	assert.True(t, engine.CanView(ctx, principalWith(RoleTenant), docResA, myResidences))
	assert.False(t, engine.CanView(ctx, principalWith(RoleTenant), docHidden, myResidences), "tenant-invisible always denies")
	assert.True(t, engine.CanView(ctx, principalWith(RoleDemoTenant), docResA, myResidences), "demo roles mirror base capability")
}

func TestCanViewManagerOrganizationScoped(t *testing.T) {
	engine := NewPolicyEngine(policyStore())
	ctx := context.Background()
	doc := &Document{ID: "doc-org", OrganizationID: "org-a"}

	assert.True(t, engine.CanView(ctx, principalWith(RoleManager, "org-a"), doc, nil))
	assert.False(t, engine.CanView(ctx, principalWith(RoleManager, "org-b"), doc, nil))
	assert.True(t, engine.CanView(ctx, Principal{
		User:                      &User{ID: "user-1", Role: RoleManager},
		CanAccessAllOrganizations: true,
	}, doc, nil), "all-organizations super-grant")
}

func TestCanEditMatrix(t *testing.T) {
	engine := NewPolicyEngine(policyStore())
	ctx := context.Background()

	mine := &Document{ID: "doc-1", ResidenceID: "res-b", UploadedBy: "user-1"}
	theirs := &Document{ID: "doc-2", ResidenceID: "res-a", UploadedBy: "someone"}
	myResidences := []Residence{{ID: "res-a", BuildingID: "bld-a"}}

	assert.True(t, engine.CanEdit(ctx, principalWith(RoleAdmin), theirs, nil))
	assert.True(t, engine.CanEdit(ctx, principalWith(RoleManager, "org-a"), theirs, nil))
	assert.True(t, engine.CanEdit(ctx, principalWith(RoleResident), mine, nil), "uploader may edit regardless of residence")
	assert.True(t, engine.CanEdit(ctx, principalWith(RoleResident), theirs, myResidences), "residence match may edit")
	assert.False(t, engine.CanEdit(ctx, principalWith(RoleResident), theirs, nil))
	assert.False(t, engine.CanEdit(ctx, principalWith(RoleTenant), mine, myResidences), "tenants never edit")
}

func TestCanDeleteStricterThanEdit(t *testing.T) {
	engine := NewPolicyEngine(policyStore())
	ctx := context.Background()

	theirs := &Document{ID: "doc-2", ResidenceID: "res-a", UploadedBy: "someone"}
	mine := &Document{ID: "doc-1", ResidenceID: "res-a", UploadedBy: "user-1"}
	myResidences := []Residence{{ID: "res-a", BuildingID: "bld-a"}}

	assert.True(t, engine.CanDelete(ctx, principalWith(RoleResident), mine, nil))
	assert.False(t, engine.CanDelete(ctx, principalWith(RoleResident), theirs, myResidences),
		"residence membership alone must not delete someone else's document")
	assert.False(t, engine.CanDelete(ctx, principalWith(RoleTenant), mine, myResidences))
	assert.True(t, engine.CanDelete(ctx, principalWith(RoleManager, "org-a"), theirs, nil))
	assert.False(t, engine.CanDelete(ctx, principalWith(RoleManager, "org-b"), theirs, nil))
}

func TestCanCreateReQueriesMembership(t *testing.T) {
	store := policyStore()
	queried := false
	store.getUserResidences = func(_ context.Context, userID string) ([]Residence, error) {
		queried = true
		require.Equal(t, "user-1", userID)
		return []Residence{{ID: "res-a", BuildingID: "bld-a"}}, nil
	}
	engine := NewPolicyEngine(store)
	ctx := context.Background()

	assert.True(t, engine.CanCreate(ctx, principalWith(RoleResident), CreateScope{ResidenceID: "res-a"}))
	assert.True(t, queried, "resident create must query membership from storage")

	// A crafted residence list cannot be injected: the scope targets res-b,
	// which the fresh query does not contain.
	assert.False(t, engine.CanCreate(ctx, principalWith(RoleResident), CreateScope{ResidenceID: "res-b"}))

	assert.True(t, engine.CanCreate(ctx, principalWith(RoleManager, "org-a"), CreateScope{BuildingID: "bld-a"}))
	assert.False(t, engine.CanCreate(ctx, principalWith(RoleManager, "org-a"), CreateScope{BuildingID: "bld-b"}))
	assert.True(t, engine.CanCreate(ctx, principalWith(RoleAdmin), CreateScope{}))
	assert.False(t, engine.CanCreate(ctx, principalWith(RoleTenant), CreateScope{ResidenceID: "res-a"}))
}

func TestPolicyFailsClosedOnStorageError(t *testing.T) {
	store := policyStore()
	store.getBuilding = func(_ context.Context, _ string) (*Building, error) {
		return nil, errors.New("db down")
	}
	store.getUserResidences = func(_ context.Context, _ string) ([]Residence, error) {
		return nil, errors.New("db down")
	}
	engine := NewPolicyEngine(store)
	ctx := context.Background()
	doc := &Document{ID: "doc-1", BuildingID: "bld-a"}

	assert.False(t, engine.CanView(ctx, principalWith(RoleManager, "org-a"), doc, nil))
	assert.False(t, engine.CanEdit(ctx, principalWith(RoleManager, "org-a"), doc, nil))
	assert.False(t, engine.CanDelete(ctx, principalWith(RoleManager, "org-a"), doc, nil))
	assert.False(t, engine.CanCreate(ctx, principalWith(RoleResident), CreateScope{ResidenceID: "res-a"}))
}

func TestPolicyIdempotent(t *testing.T) {
	engine := NewPolicyEngine(policyStore())
	ctx := context.Background()
	doc := &Document{ID: "doc-1", ResidenceID: "res-a", IsVisibleToTenants: true}
	residences := []Residence{{ID: "res-a", BuildingID: "bld-a"}}
	p := principalWith(RoleTenant)

	first := engine.CanView(ctx, p, doc, residences)
	second := engine.CanView(ctx, p, doc, residences)
	assert.Equal(t, first, second)
	assert.True(t, first)
}
