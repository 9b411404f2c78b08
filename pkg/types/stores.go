package types

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserLoader resolves an authenticated principal into the fully joined user
// the engine operates on. Host applications typically back this with their
// session store plus the role registry.
type UserLoader interface {
	LoadUser(ctx context.Context, id uuid.UUID) (*ResolvedUser, error)
}

// AssignmentStore persists the staff-to-customer assignment relation. The
// replace is all-or-nothing: a concurrent reader observes either the previous
// set or the new one, never a partially applied mix.
type AssignmentStore interface {
	SetAssignments(ctx context.Context, actor ActorRef, userID uuid.UUID, customerIDs []uuid.UUID, primaryCustomerID uuid.UUID) error
	AssignedCustomerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListAssignments(ctx context.Context, userID uuid.UUID) ([]CustomerAssignment, error)
}

// LinkStore answers which customers an organization can see: the ones its
// users created plus the ones linked with an approved connection.
type LinkStore interface {
	CreatedCustomerIDs(ctx context.Context, organizationID uuid.UUID) ([]uuid.UUID, error)
	ApprovedCustomerIDs(ctx context.Context, organizationID uuid.UUID) ([]uuid.UUID, error)
}

// RoleMutation describes create/update payloads for custom roles. Overrides
// replace the stored list wholesale; the store applies the replace atomically.
type RoleMutation struct {
	Name        string
	Description string
	TemplateID  uuid.UUID
	Overrides   []PermissionOverride
	Anchor      TenantAnchor
	ActorID     uuid.UUID
}

// RoleFilter narrows custom role listings to a tenant anchor.
type RoleFilter struct {
	Anchor     TenantAnchor
	Keyword    string
	Pagination Pagination
}

// RolePage represents a paginated set of custom roles.
type RolePage struct {
	Roles      []CustomRole
	Total      int
	NextOffset int
	HasMore    bool
}

// RoleStore persists role templates, custom roles, and permission overrides.
type RoleStore interface {
	CreateRole(ctx context.Context, input RoleMutation) (*CustomRole, error)
	UpdateRole(ctx context.Context, id uuid.UUID, input RoleMutation) (*CustomRole, error)
	DeleteRole(ctx context.Context, id uuid.UUID, anchor TenantAnchor, actor uuid.UUID) error
	GetRole(ctx context.Context, id uuid.UUID, anchor TenantAnchor) (*CustomRole, error)
	ListRoles(ctx context.Context, filter RoleFilter) (RolePage, error)

	GetTemplate(ctx context.Context, id uuid.UUID) (*RoleTemplate, error)
	ListTemplates(ctx context.Context, category RoleCategory) ([]RoleTemplate, error)

	ReplaceUserOverrides(ctx context.Context, actor ActorRef, userID uuid.UUID, overrides []UserPermissionOverride) error
	ListUserOverrides(ctx context.Context, userID uuid.UUID) ([]UserPermissionOverride, error)
}

// RoleEvent is emitted after a role, override, or assignment mutation.
type RoleEvent struct {
	RoleID     uuid.UUID
	UserID     uuid.UUID
	Action     string
	ActorID    uuid.UUID
	Anchor     TenantAnchor
	OccurredAt time.Time
}

// Hooks groups optional callbacks invoked after mutations complete.
type Hooks struct {
	AfterRoleChange       func(context.Context, RoleEvent)
	AfterOverrideChange   func(context.Context, RoleEvent)
	AfterAssignmentChange func(context.Context, RoleEvent)
}
