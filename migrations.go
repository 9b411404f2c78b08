package access

import "embed"

// MigrationsFS contains the full SQL migration tree.
//
// Layout:
//   - data/sql/migrations/*.sql          core tables (role catalogue, tenancy), PostgreSQL flavor
//   - data/sql/migrations/sqlite/*.sql   SQLite overrides for the core set
//   - data/sql/migrations/auth/*.sql     minimal users table for standalone runs
//   - data/sql/migrations/extras/*.sql   optional audit trail table
//
// Host applications typically feed the sub-filesystems into go-persistence-bun:
//
//	import "io/fs"
//	import access "github.com/stackwise/go-access"
//
//	coreFS, _ := fs.Sub(access.GetCoreMigrationsFS(), "data/sql/migrations")
//	client.RegisterMigrations(coreFS)
//
//go:embed data/sql/migrations
var MigrationsFS embed.FS

// CoreMigrationsFS contains the tables this module owns: role templates,
// custom roles, permission overrides, customers, connection links, and
// assignments. It omits the host-owned users table.
//
//go:embed data/sql/migrations/*.sql data/sql/migrations/sqlite/*.sql
var CoreMigrationsFS embed.FS

// UsersBootstrapMigrationsFS contains a minimal users table with the columns
// the user loader reads. Hosts that already own a users table skip it and run
// migrations.ValidateHostSchema instead.
//
//go:embed data/sql/migrations/auth
var UsersBootstrapMigrationsFS embed.FS

// AuditMigrationsFS contains the access_audit table backing the bundled audit
// sink. Hosts that wire their own Sink implementation can skip it.
//
//go:embed data/sql/migrations/extras
var AuditMigrationsFS embed.FS
