package access

import "embed"

// GetCoreMigrationsFS exposes the core SQL migrations so host applications can
// register them with go-persistence-bun (or another migration runner).
func GetCoreMigrationsFS() embed.FS {
	return CoreMigrationsFS
}

// GetUsersBootstrapMigrationsFS exposes the standalone users table migration.
func GetUsersBootstrapMigrationsFS() embed.FS {
	return UsersBootstrapMigrationsFS
}

// GetAuditMigrationsFS exposes the audit trail migration.
func GetAuditMigrationsFS() embed.FS {
	return AuditMigrationsFS
}
