package command

import (
	"context"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/pkg/types"
)

// UpdateRoleInput carries data for editing an existing custom role. The
// override list replaces the stored one wholesale.
type UpdateRoleInput struct {
	RoleID      uuid.UUID
	Name        string
	Description string
	TemplateID  uuid.UUID
	Overrides   []types.PermissionOverride
	Anchor      types.TenantAnchor
	Actor       types.ActorRef
	Result      *types.CustomRole
}

// Type implements gocommand.Message.
func (UpdateRoleInput) Type() string {
	return "command.role.update"
}

// Validate implements gocommand.Message.
func (input UpdateRoleInput) Validate() error {
	return validateRoleTarget(input.RoleID, input.Actor)
}

// UpdateRoleCommand applies role edits through the store.
type UpdateRoleCommand struct {
	roles types.RoleStore
}

// NewUpdateRoleCommand constructs the handler.
func NewUpdateRoleCommand(roles types.RoleStore) *UpdateRoleCommand {
	return &UpdateRoleCommand{roles: roles}
}

var _ gocommand.Commander[UpdateRoleInput] = (*UpdateRoleCommand)(nil)

// Execute validates and forwards the update payload to the store.
func (c *UpdateRoleCommand) Execute(ctx context.Context, input UpdateRoleInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	role, err := c.roles.UpdateRole(ctx, input.RoleID, types.RoleMutation{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		TemplateID:  input.TemplateID,
		Overrides:   input.Overrides,
		Anchor:      input.Anchor,
		ActorID:     input.Actor.ID,
	})
	if err != nil {
		return err
	}
	if input.Result != nil && role != nil {
		*input.Result = *role
	}
	return nil
}
