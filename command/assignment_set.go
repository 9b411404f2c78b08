package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/pkg/types"
)

// SetAssignmentsInput replaces a staff user's customer portfolio. An empty
// CustomerIDs clears the portfolio; under ASSIGNED scope that user then sees
// nothing.
type SetAssignmentsInput struct {
	UserID            uuid.UUID
	CustomerIDs       []uuid.UUID
	PrimaryCustomerID uuid.UUID
	Actor             types.ActorRef
}

// Type implements gocommand.Message.
func (SetAssignmentsInput) Type() string {
	return "command.assignments.set"
}

// Validate implements gocommand.Message.
func (input SetAssignmentsInput) Validate() error {
	return validateUserTarget(input.UserID, input.Actor)
}

// SetAssignmentsCommand replaces assignments through the store.
type SetAssignmentsCommand struct {
	assignments types.AssignmentStore
}

// NewSetAssignmentsCommand constructs the handler.
func NewSetAssignmentsCommand(assignments types.AssignmentStore) *SetAssignmentsCommand {
	return &SetAssignmentsCommand{assignments: assignments}
}

var _ gocommand.Commander[SetAssignmentsInput] = (*SetAssignmentsCommand)(nil)

// Execute validates and forwards the replacement to the store.
func (c *SetAssignmentsCommand) Execute(ctx context.Context, input SetAssignmentsInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	return c.assignments.SetAssignments(ctx, input.Actor, input.UserID, input.CustomerIDs, input.PrimaryCustomerID)
}
