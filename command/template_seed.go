package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
)

// TemplateSeeder installs the built-in role template catalogue.
type TemplateSeeder interface {
	SeedTemplates(ctx context.Context) error
}

// SeedTemplatesInput triggers template seeding. Seeding is idempotent, so
// deployments run it on every boot.
type SeedTemplatesInput struct{}

// Type implements gocommand.Message.
func (SeedTemplatesInput) Type() string {
	return "command.templates.seed"
}

// Validate implements gocommand.Message.
func (SeedTemplatesInput) Validate() error {
	return nil
}

// SeedTemplatesCommand forwards to the seeder.
type SeedTemplatesCommand struct {
	seeder TemplateSeeder
}

// NewSeedTemplatesCommand constructs the handler.
func NewSeedTemplatesCommand(seeder TemplateSeeder) *SeedTemplatesCommand {
	return &SeedTemplatesCommand{seeder: seeder}
}

var _ gocommand.Commander[SeedTemplatesInput] = (*SeedTemplatesCommand)(nil)

// Execute seeds the template catalogue.
func (c *SeedTemplatesCommand) Execute(ctx context.Context, input SeedTemplatesInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	return c.seeder.SeedTemplates(ctx)
}
