package access

import (
	"io/fs"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/stackwise/go-access/assignment"
	"github.com/stackwise/go-access/audit"
	"github.com/stackwise/go-access/registry"
	"github.com/stackwise/go-access/tenancy"
)

// RegisterModels registers every bun model this module owns with
// go-persistence-bun. Call it before persistence.New so relation metadata is
// available to the client.
func RegisterModels() {
	persistence.RegisterModel((*registry.RoleTemplate)(nil))
	persistence.RegisterModel((*registry.CustomRole)(nil))
	persistence.RegisterModel((*registry.RolePermissionOverride)(nil))
	persistence.RegisterModel((*registry.UserPermissionOverride)(nil))
	persistence.RegisterModel((*assignment.CustomerAssignment)(nil))
	persistence.RegisterModel((*tenancy.Customer)(nil))
	persistence.RegisterModel((*tenancy.CustomerOrganization)(nil))
	persistence.RegisterModel((*audit.LogEntry)(nil))
}

// RegisterCoreMigrations attaches the module's core migrations to a
// go-persistence-bun client.
func RegisterCoreMigrations(client *persistence.Client) error {
	coreFS, err := fs.Sub(MigrationsFS, "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		coreFS,
		persistence.WithDialectSourceLabel("."),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	return nil
}
