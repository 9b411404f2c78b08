package query

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/pkg/types"
)

var (
	errRoleIDRequired = errors.New("go-access: role id required")
)

// RoleListQuery lists custom roles for admin surfaces.
type RoleListQuery struct {
	roles types.RoleStore
}

// NewRoleListQuery builds the list query.
func NewRoleListQuery(roles types.RoleStore) *RoleListQuery {
	return &RoleListQuery{roles: roles}
}

var _ gocommand.Querier[types.RoleFilter, types.RolePage] = (*RoleListQuery)(nil)

// Query forwards to the store. Listings are always anchored; a zero anchor
// returns the empty platform scope rather than every tenant's roles.
func (q *RoleListQuery) Query(ctx context.Context, filter types.RoleFilter) (types.RolePage, error) {
	if q.roles == nil {
		return types.RolePage{}, types.ErrMissingRoleStore
	}
	return q.roles.ListRoles(ctx, filter)
}

// RoleDetailInput fetches a single role by ID.
type RoleDetailInput struct {
	RoleID uuid.UUID
	Anchor types.TenantAnchor
}

// Type implements gocommand.Message.
func (RoleDetailInput) Type() string {
	return "query.role.detail"
}

// Validate implements gocommand.Message.
func (input RoleDetailInput) Validate() error {
	if input.RoleID == uuid.Nil {
		return errRoleIDRequired
	}
	return nil
}

// RoleDetailQuery loads one custom role with template and overrides joined.
type RoleDetailQuery struct {
	roles types.RoleStore
}

// NewRoleDetailQuery constructs the detail query.
func NewRoleDetailQuery(roles types.RoleStore) *RoleDetailQuery {
	return &RoleDetailQuery{roles: roles}
}

var _ gocommand.Querier[RoleDetailInput, *types.CustomRole] = (*RoleDetailQuery)(nil)

// Query fetches role detail.
func (q *RoleDetailQuery) Query(ctx context.Context, input RoleDetailInput) (*types.CustomRole, error) {
	if q.roles == nil {
		return nil, types.ErrMissingRoleStore
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return q.roles.GetRole(ctx, input.RoleID, input.Anchor)
}

// TemplateListInput filters the template catalogue by category. An empty
// category returns both sides.
type TemplateListInput struct {
	Category types.RoleCategory
}

// Type implements gocommand.Message.
func (TemplateListInput) Type() string {
	return "query.template.list"
}

// Validate implements gocommand.Message.
func (TemplateListInput) Validate() error {
	return nil
}

// TemplateListQuery lists seeded role templates.
type TemplateListQuery struct {
	roles types.RoleStore
}

// NewTemplateListQuery constructs the template listing.
func NewTemplateListQuery(roles types.RoleStore) *TemplateListQuery {
	return &TemplateListQuery{roles: roles}
}

var _ gocommand.Querier[TemplateListInput, []types.RoleTemplate] = (*TemplateListQuery)(nil)

// Query forwards to the store.
func (q *TemplateListQuery) Query(ctx context.Context, input TemplateListInput) ([]types.RoleTemplate, error) {
	if q.roles == nil {
		return nil, types.ErrMissingRoleStore
	}
	return q.roles.ListTemplates(ctx, input.Category)
}

// UserOverridesInput fetches a user's permission overrides.
type UserOverridesInput struct {
	UserID uuid.UUID
}

// Type implements gocommand.Message.
func (UserOverridesInput) Type() string {
	return "query.user_overrides.list"
}

// Validate implements gocommand.Message.
func (input UserOverridesInput) Validate() error {
	if input.UserID == uuid.Nil {
		return types.ErrUserIDRequired
	}
	return nil
}

// UserOverridesQuery lists a user's overrides in stored order.
type UserOverridesQuery struct {
	roles types.RoleStore
}

// NewUserOverridesQuery constructs the listing.
func NewUserOverridesQuery(roles types.RoleStore) *UserOverridesQuery {
	return &UserOverridesQuery{roles: roles}
}

var _ gocommand.Querier[UserOverridesInput, []types.UserPermissionOverride] = (*UserOverridesQuery)(nil)

// Query forwards to the store.
func (q *UserOverridesQuery) Query(ctx context.Context, input UserOverridesInput) ([]types.UserPermissionOverride, error) {
	if q.roles == nil {
		return nil, types.ErrMissingRoleStore
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return q.roles.ListUserOverrides(ctx, input.UserID)
}
