package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/pkg/types"
)

// DeleteRoleInput removes a custom role.
type DeleteRoleInput struct {
	RoleID uuid.UUID
	Anchor types.TenantAnchor
	Actor  types.ActorRef
}

// Type implements gocommand.Message.
func (DeleteRoleInput) Type() string {
	return "command.role.delete"
}

// Validate implements gocommand.Message.
func (input DeleteRoleInput) Validate() error {
	return validateRoleTarget(input.RoleID, input.Actor)
}

// DeleteRoleCommand deletes roles through the store. The store refuses while
// users still reference the role.
type DeleteRoleCommand struct {
	roles types.RoleStore
}

// NewDeleteRoleCommand constructs the handler.
func NewDeleteRoleCommand(roles types.RoleStore) *DeleteRoleCommand {
	return &DeleteRoleCommand{roles: roles}
}

var _ gocommand.Commander[DeleteRoleInput] = (*DeleteRoleCommand)(nil)

// Execute deletes the requested role after validation.
func (c *DeleteRoleCommand) Execute(ctx context.Context, input DeleteRoleInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	return c.roles.DeleteRole(ctx, input.RoleID, input.Anchor, input.Actor.ID)
}
