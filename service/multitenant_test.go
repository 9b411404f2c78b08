package service_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stackwise/go-access/assignment"
	"github.com/stackwise/go-access/audit"
	"github.com/stackwise/go-access/command"
	"github.com/stackwise/go-access/pkg/types"
	"github.com/stackwise/go-access/query"
	"github.com/stackwise/go-access/registry"
	"github.com/stackwise/go-access/scope"
	"github.com/stackwise/go-access/service"
	"github.com/stackwise/go-access/tenancy"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const integrationDDL = `
CREATE TABLE role_templates (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    description TEXT,
    category TEXT NOT NULL,
    default_permissions TEXT,
    is_system INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE custom_roles (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    organization_id TEXT NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000',
    customer_id TEXT NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000',
    template_id TEXT NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    created_by TEXT NOT NULL,
    updated_by TEXT NOT NULL
);

CREATE TABLE role_permission_overrides (
    role_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    pattern TEXT NOT NULL,
    granted INTEGER NOT NULL,
    PRIMARY KEY (role_id, position)
);

CREATE TABLE user_permission_overrides (
    user_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    pattern TEXT NOT NULL,
    granted INTEGER NOT NULL,
    granted_by TEXT NOT NULL,
    reason TEXT,
    granted_at TIMESTAMP NOT NULL,
    PRIMARY KEY (user_id, position)
);

CREATE TABLE users (
    id TEXT PRIMARY KEY,
    organization_id TEXT,
    custom_role_id TEXT
);

CREATE TABLE customer_assignments (
    user_id TEXT NOT NULL,
    customer_id TEXT NOT NULL,
    is_primary INTEGER NOT NULL DEFAULT 0,
    assigned_by TEXT NOT NULL,
    assigned_at TIMESTAMP NOT NULL,
    PRIMARY KEY (user_id, customer_id)
);

CREATE TABLE customers (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_by TEXT NOT NULL,
    is_public INTEGER NOT NULL DEFAULT 0,
    merged_into_id TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE customer_organizations (
    customer_id TEXT NOT NULL,
    organization_id TEXT NOT NULL,
    status TEXT NOT NULL,
    requested_by TEXT NOT NULL,
    decided_by TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (customer_id, organization_id)
);

CREATE TABLE access_audit (
    id TEXT PRIMARY KEY,
    actor_id TEXT,
    subject_user_id TEXT,
    role_id TEXT,
    organization_id TEXT,
    customer_id TEXT,
    verb TEXT NOT NULL,
    data TEXT,
    created_at TIMESTAMP NOT NULL
);
`

type mapUserLoader struct {
	users map[uuid.UUID]*types.ResolvedUser
}

func (m *mapUserLoader) LoadUser(_ context.Context, id uuid.UUID) (*types.ResolvedUser, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return user, nil
}

func newIntegrationDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open("sqlite3", ":memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})
	for _, stmt := range strings.Split(integrationDDL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err, "executing statement %q", stmt)
	}
	return db
}

func TestService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	db := newIntegrationDB(t)

	auditRepo, err := audit.NewRepository(audit.RepositoryConfig{DB: db})
	require.NoError(t, err)
	hooks := service.AuditHooks(auditRepo, nil, types.Hooks{})

	roleStore, err := registry.NewRoleStore(registry.RoleStoreConfig{DB: db, Hooks: hooks})
	require.NoError(t, err)
	assignments, err := assignment.NewManager(assignment.ManagerConfig{DB: db, Hooks: hooks})
	require.NoError(t, err)
	links, err := tenancy.NewLinkStore(tenancy.LinkStoreConfig{DB: db})
	require.NoError(t, err)

	orgA := uuid.New()
	orgB := uuid.New()
	adminA := types.ActorRef{ID: uuid.New(), Role: types.SystemRoleOrgAdmin}

	loader := &mapUserLoader{users: map[uuid.UUID]*types.ResolvedUser{}}

	svc, err := service.New(service.Config{
		RoleStore:       roleStore,
		AssignmentStore: assignments,
		LinkStore:       links,
		UserLoader:      loader,
		AuditSink:       auditRepo,
	})
	require.NoError(t, err)
	require.NoError(t, svc.HealthCheck(ctx))

	// Seed the template catalogue.
	require.NotNil(t, svc.Commands().SeedTemplates)
	require.NoError(t, svc.Commands().SeedTemplates.Execute(ctx, command.SeedTemplatesInput{}))

	templates, err := svc.Queries().TemplateList.Query(ctx, query.TemplateListInput{
		Category: types.RoleCategoryOrganization,
	})
	require.NoError(t, err)
	require.Len(t, templates, 3)
	var operatorTemplate types.RoleTemplate
	for _, template := range templates {
		if template.Code == "org_operator" {
			operatorTemplate = template
		}
	}
	require.NotEqual(t, uuid.Nil, operatorTemplate.ID)

	// Org A builds a custom role on the operator template, revoking limits.
	role := &types.CustomRole{}
	err = svc.Commands().CreateRole.Execute(ctx, command.CreateRoleInput{
		Name:       "Field Operator",
		TemplateID: operatorTemplate.ID,
		Overrides: []types.PermissionOverride{
			{Pattern: "limit.read", Granted: false},
		},
		Anchor: types.TenantAnchor{OrganizationID: orgA},
		Actor:  adminA,
		Result: role,
	})
	require.NoError(t, err)

	// Roles are invisible to other organizations.
	pageB, err := svc.Queries().RoleList.Query(ctx, types.RoleFilter{
		Anchor: types.TenantAnchor{OrganizationID: orgB},
	})
	require.NoError(t, err)
	require.Empty(t, pageB.Roles)

	// Customer landscape: c1 created by org A staff, c2 approved link,
	// c3 belongs to org B only.
	creatorA := uuid.New()
	_, err = db.Exec("INSERT INTO users (id, organization_id) VALUES (?, ?)", creatorA.String(), orgA.String())
	require.NoError(t, err)

	c1, err := links.CreateCustomer(ctx, "Northern Mill", creatorA, false)
	require.NoError(t, err)
	c2 := uuid.New()
	require.NoError(t, links.RequestConnection(ctx, c2, orgA, creatorA))
	require.NoError(t, links.ApproveConnection(ctx, c2, orgA, adminA.ID))
	c3 := uuid.New()
	require.NoError(t, links.RequestConnection(ctx, c3, orgB, uuid.New()))

	// Operator with ASSIGNED scope, narrowed to c1.
	operatorID := uuid.New()
	loadedRole, err := roleStore.GetRole(ctx, role.ID, types.TenantAnchor{OrganizationID: orgA})
	require.NoError(t, err)
	loader.users[operatorID] = &types.ResolvedUser{
		ID:             operatorID,
		Role:           types.SystemRoleOperator,
		OrganizationID: orgA,
		AccessScope:    types.AccessScopeAssigned,
		CustomRole:     loadedRole,
	}
	require.NoError(t, svc.Commands().SetAssignments.Execute(ctx, command.SetAssignmentsInput{
		UserID:            operatorID,
		CustomerIDs:       []uuid.UUID{c1.ID},
		PrimaryCustomerID: c1.ID,
		Actor:             adminA,
	}))

	visible, err := svc.Queries().VisibleCustomers.Query(ctx, query.VisibleCustomersInput{
		UserID:   operatorID,
		Resource: scope.ResourceMeasurements,
	})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{c1.ID}, visible.CustomerIDs)

	// Widening the assignment set is visible on the next query, no cache.
	require.NoError(t, svc.Commands().SetAssignments.Execute(ctx, command.SetAssignmentsInput{
		UserID:      operatorID,
		CustomerIDs: []uuid.UUID{c1.ID, c2},
		Actor:       adminA,
	}))
	visible, err = svc.Queries().VisibleCustomers.Query(ctx, query.VisibleCustomersInput{
		UserID:   operatorID,
		Resource: scope.ResourceMeasurements,
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{c1.ID, c2}, visible.CustomerIDs)

	// Effective permissions: template grants apply, the role revoke holds.
	effective, err := svc.Queries().EffectivePermissions.Query(ctx, query.EffectivePermissionsInput{
		UserID: operatorID,
	})
	require.NoError(t, err)
	require.True(t, effective.Allows("measurement.read"))
	require.False(t, effective.Allows("limit.read"), "role override revokes the template grant")

	// Customer-side users collapse to their own customer regardless of
	// permission state.
	customerUserID := uuid.New()
	loader.users[customerUserID] = &types.ResolvedUser{
		ID:          customerUserID,
		Role:        types.SystemRoleCustomerAdmin,
		CustomerID:  c1.ID,
		AccessScope: types.AccessScopeAll,
		Overrides: []types.UserPermissionOverride{
			{Pattern: "*", Granted: true},
		},
	}
	customerVisible, err := svc.Queries().VisibleCustomers.Query(ctx, query.VisibleCustomersInput{
		UserID:   customerUserID,
		Resource: scope.ResourceMeasurements,
	})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{c1.ID}, customerVisible.CustomerIDs)

	// Every mutation above landed in the audit trail.
	feed, err := auditRepo.ListRecords(ctx, audit.Filter{Pagination: types.Pagination{Limit: 50}})
	require.NoError(t, err)
	verbs := map[string]int{}
	for _, record := range feed.Records {
		verbs[record.Verb]++
	}
	require.Equal(t, 1, verbs["role.created"])
	require.Equal(t, 2, verbs["assignments.replaced"])
}
