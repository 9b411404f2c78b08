package command

import (
	"context"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/pkg/types"
)

// CreateRoleInput carries data for creating custom roles.
type CreateRoleInput struct {
	Name        string
	Description string
	TemplateID  uuid.UUID
	Overrides   []types.PermissionOverride
	Anchor      types.TenantAnchor
	Actor       types.ActorRef
	Result      *types.CustomRole
}

// Type implements gocommand.Message.
func (CreateRoleInput) Type() string {
	return "command.role.create"
}

// Validate implements gocommand.Message.
func (input CreateRoleInput) Validate() error {
	return validateRoleMutation(input.Actor, input.Name, input.Anchor)
}

// CreateRoleCommand invokes the injected role store.
type CreateRoleCommand struct {
	roles types.RoleStore
}

// NewCreateRoleCommand wires a role creation handler.
func NewCreateRoleCommand(roles types.RoleStore) *CreateRoleCommand {
	return &CreateRoleCommand{roles: roles}
}

var _ gocommand.Commander[CreateRoleInput] = (*CreateRoleCommand)(nil)

// Execute validates and forwards the creation payload to the store.
func (c *CreateRoleCommand) Execute(ctx context.Context, input CreateRoleInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	role, err := c.roles.CreateRole(ctx, types.RoleMutation{
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
