package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/pkg/types"
)

// ReplaceUserOverridesInput swaps a user's full override list. Overrides are
// the sharpest tool in the model, so the whole flow sits behind a feature
// gate and every row records who granted it and why.
type ReplaceUserOverridesInput struct {
	UserID    uuid.UUID
	Overrides []types.UserPermissionOverride
	Anchor    types.TenantAnchor
	Actor     types.ActorRef
}

// Type implements gocommand.Message.
func (ReplaceUserOverridesInput) Type() string {
	return "command.user_overrides.replace"
}

// Validate implements gocommand.Message.
func (input ReplaceUserOverridesInput) Validate() error {
	return validateUserTarget(input.UserID, input.Actor)
}

// ReplaceUserOverridesCommand writes per-user overrides through the store.
type ReplaceUserOverridesCommand struct {
	roles types.RoleStore
	gate  featuregate.FeatureGate
}

// NewReplaceUserOverridesCommand constructs the handler. A nil gate leaves
// the flow enabled.
func NewReplaceUserOverridesCommand(roles types.RoleStore, gate featuregate.FeatureGate) *ReplaceUserOverridesCommand {
	return &ReplaceUserOverridesCommand{roles: roles, gate: gate}
}

var _ gocommand.Commander[ReplaceUserOverridesInput] = (*ReplaceUserOverridesCommand)(nil)

// Execute checks the feature gate, then replaces the user's override list.
func (c *ReplaceUserOverridesCommand) Execute(ctx context.Context, input ReplaceUserOverridesInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	enabled, err := featureEnabled(ctx, c.gate, featureUserOverrides, input.Anchor, input.UserID)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrUserOverridesDisabled
	}
	return c.roles.ReplaceUserOverrides(ctx, input.Actor, input.UserID, input.Overrides)
}
