package scope

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/pkg/types"
	"github.com/stretchr/testify/require"
)

type fakeLinkStore struct {
	created  map[uuid.UUID][]uuid.UUID
	approved map[uuid.UUID][]uuid.UUID
	err      error
}

func (f *fakeLinkStore) CreatedCustomerIDs(_ context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.created[orgID], nil
}

func (f *fakeLinkStore) ApprovedCustomerIDs(_ context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.approved[orgID], nil
}

type fakeAssignments struct {
	byUser map[uuid.UUID][]uuid.UUID
}

func (f *fakeAssignments) SetAssignments(context.Context, types.ActorRef, uuid.UUID, []uuid.UUID, uuid.UUID) error {
	return errors.New("not implemented")
}

func (f *fakeAssignments) AssignedCustomerIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return f.byUser[userID], nil
}

func (f *fakeAssignments) ListAssignments(context.Context, uuid.UUID) ([]types.CustomerAssignment, error) {
	return nil, errors.New("not implemented")
}

func newTestBuilder(t *testing.T, links *fakeLinkStore, assignments *fakeAssignments) *Builder {
	t.Helper()
	if links == nil {
		links = &fakeLinkStore{}
	}
	if assignments == nil {
		assignments = &fakeAssignments{}
	}
	builder, err := NewBuilder(BuilderConfig{
		LinkStore:       links,
		AssignmentStore: assignments,
	})
	require.NoError(t, err)
	return builder
}

func TestBuildScope_SuperAdminUnrestricted(t *testing.T) {
	builder := newTestBuilder(t, nil, nil)
	user := types.ResolvedUser{ID: uuid.New(), Role: types.SystemRoleSuperAdmin}

	predicate, err := builder.BuildScope(context.Background(), user, ResourceMeasurements)
	require.NoError(t, err)
	require.True(t, predicate.IsUnrestricted())
	require.True(t, predicate.Allows(RowScope{CustomerID: uuid.New()}))
}

func TestBuildScope_SuperAdminImpersonatesCustomer(t *testing.T) {
	builder := newTestBuilder(t, nil, nil)
	user := types.ResolvedUser{ID: uuid.New(), Role: types.SystemRoleSuperAdmin}
	target := uuid.New()

	predicate, err := builder.BuildScope(context.Background(), user, ResourceReports,
		WithImpersonation(Impersonation{CustomerID: target}))
	require.NoError(t, err)
	require.False(t, predicate.IsUnrestricted())
	require.True(t, predicate.Allows(RowScope{CustomerID: target}))
	require.False(t, predicate.Allows(RowScope{CustomerID: uuid.New()}))
}

func TestBuildScope_SuperAdminImpersonatesOrganization(t *testing.T) {
	orgID := uuid.New()
	c1, c2 := uuid.New(), uuid.New()
	links := &fakeLinkStore{
		created:  map[uuid.UUID][]uuid.UUID{orgID: {c1}},
		approved: map[uuid.UUID][]uuid.UUID{orgID: {c2}},
	}
	builder := newTestBuilder(t, links, nil)
	user := types.ResolvedUser{ID: uuid.New(), Role: types.SystemRoleSuperAdmin}

	predicate, err := builder.BuildScope(context.Background(), user, ResourceCustomers,
		WithImpersonation(Impersonation{OrganizationID: orgID}))
	require.NoError(t, err)
	require.True(t, predicate.Allows(RowScope{CustomerID: c1}))
	require.True(t, predicate.Allows(RowScope{CustomerID: c2}))
	require.False(t, predicate.Allows(RowScope{CustomerID: uuid.New()}))
}

// Organization A created C1 with no link row, organization B holds an
// APPROVED link to C1, organization C holds nothing.
func TestBuildScope_OrganizationVisibility(t *testing.T) {
	orgA, orgB, orgC := uuid.New(), uuid.New(), uuid.New()
	c1 := uuid.New()
	links := &fakeLinkStore{
		created:  map[uuid.UUID][]uuid.UUID{orgA: {c1}},
		approved: map[uuid.UUID][]uuid.UUID{orgB: {c1}},
	}
	builder := newTestBuilder(t, links, nil)

	staff := func(orgID uuid.UUID) types.ResolvedUser {
		return types.ResolvedUser{
			ID:             uuid.New(),
			Role:           types.SystemRoleOperator,
			OrganizationID: orgID,
			AccessScope:    types.AccessScopeAll,
		}
	}

	for _, tc := range []struct {
		name  string
		orgID uuid.UUID
		seeC1 bool
	}{
		{"creator org sees C1", orgA, true},
		{"approved-linked org sees C1", orgB, true},
		{"unrelated org excluded", orgC, false},
	} {
		predicate, err := builder.BuildScope(context.Background(), staff(tc.orgID), ResourceMeasurements)
		require.NoError(t, err, tc.name)
		require.Equal(t, tc.seeC1, predicate.Allows(RowScope{CustomerID: c1}), tc.name)
	}
}

func TestBuildScope_AssignedNarrowing(t *testing.T) {
	orgID := uuid.New()
	c1, c2, c3 := uuid.New(), uuid.New(), uuid.New()
	links := &fakeLinkStore{
		created:  map[uuid.UUID][]uuid.UUID{orgID: {c1, c2}},
		approved: map[uuid.UUID][]uuid.UUID{orgID: {c3}},
	}
	staffID := uuid.New()
	assignments := &fakeAssignments{byUser: map[uuid.UUID][]uuid.UUID{staffID: {c2}}}
	builder := newTestBuilder(t, links, assignments)

	user := types.ResolvedUser{
		ID:             staffID,
		Role:           types.SystemRoleOperator,
		OrganizationID: orgID,
		AccessScope:    types.AccessScopeAssigned,
	}

	predicate, err := builder.BuildScope(context.Background(), user, ResourceMeasurements)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{c2}, predicate.CustomerIDs())
	require.False(t, predicate.Allows(RowScope{CustomerID: c1}))
	require.False(t, predicate.Allows(RowScope{CustomerID: c3}))
}

func TestBuildScope_AssignedOutsideOrgVisibilityStaysExcluded(t *testing.T) {
	orgID := uuid.New()
	c1 := uuid.New()
	foreign := uuid.New()
	links := &fakeLinkStore{created: map[uuid.UUID][]uuid.UUID{orgID: {c1}}}
	staffID := uuid.New()
	assignments := &fakeAssignments{byUser: map[uuid.UUID][]uuid.UUID{staffID: {c1, foreign}}}
	builder := newTestBuilder(t, links, assignments)

	user := types.ResolvedUser{
		ID:             staffID,
		Role:           types.SystemRoleOperator,
		OrganizationID: orgID,
		AccessScope:    types.AccessScopeAssigned,
	}

	predicate, err := builder.BuildScope(context.Background(), user, ResourceStacks)
	require.NoError(t, err)
	require.True(t, predicate.Allows(RowScope{CustomerID: c1}))
	require.False(t, predicate.Allows(RowScope{CustomerID: foreign}),
		"assignments never widen beyond the organization's visible set")
}

// The core tenant-isolation invariant: customer-side users collapse to one
// equality test no matter what permission state they carry.
func TestBuildScope_CustomerSideIgnoresPermissionState(t *testing.T) {
	builder := newTestBuilder(t, nil, nil)
	customerID := uuid.New()

	for _, role := range []types.SystemRole{
		types.SystemRoleCustomerAdmin,
		types.SystemRoleCustomerUser,
		types.SystemRoleCustomerSiteAdmin,
		types.SystemRoleCustomerSiteUser,
		types.SystemRoleCustomerGroupAdmin,
		types.SystemRoleCustomerGroupUser,
	} {
		user := types.ResolvedUser{
			ID:         uuid.New(),
			Role:       role,
			CustomerID: customerID,
			CustomRole: &types.CustomRole{
				ID:         uuid.New(),
				CustomerID: customerID,
				Overrides: []types.PermissionOverride{
					{Pattern: "*", Granted: true},
					{Pattern: "customer.*", Granted: true},
				},
			},
			Overrides: []types.UserPermissionOverride{
				{Pattern: "*", Granted: true},
			},
		}

		predicate, err := builder.BuildScope(context.Background(), user, ResourceMeasurements)
		require.NoError(t, err, string(role))
		require.True(t, predicate.Allows(RowScope{CustomerID: customerID}), string(role))
		require.False(t, predicate.Allows(RowScope{CustomerID: uuid.New()}),
			"%s must never see a foreign customer row", role)
	}
}

func TestBuildScope_CustomerSideWithoutAnchorDeniesAll(t *testing.T) {
	builder := newTestBuilder(t, nil, nil)
	user := types.ResolvedUser{ID: uuid.New(), Role: types.SystemRoleCustomerUser}

	_, err := builder.BuildScope(context.Background(), user, ResourceMeasurements)
	require.ErrorIs(t, err, types.ErrTenantAnchorInvalid)
}

func TestBuildScope_UnknownResourceFailsLoudly(t *testing.T) {
	builder := newTestBuilder(t, nil, nil)
	user := types.ResolvedUser{ID: uuid.New(), Role: types.SystemRoleSuperAdmin}

	predicate, err := builder.BuildScope(context.Background(), user, Resource("invoices"))
	require.Error(t, err)
	require.True(t, predicate.Empty(), "misconfiguration must not default to unrestricted")

	var rich *goerrors.Error
	require.True(t, errors.As(err, &rich))
	require.Equal(t, goerrors.CategoryInternal, rich.Category,
		"unknown resource is a configuration error, not an authorization denial")
}

func TestBuildScope_LinkStoreFailureDeniesAll(t *testing.T) {
	links := &fakeLinkStore{err: errors.New("db down")}
	builder := newTestBuilder(t, links, nil)
	user := types.ResolvedUser{
		ID:             uuid.New(),
		Role:           types.SystemRoleOrgAdmin,
		OrganizationID: uuid.New(),
	}

	predicate, err := builder.BuildScope(context.Background(), user, ResourceCustomers)
	require.Error(t, err)
	require.True(t, predicate.Empty())
}
