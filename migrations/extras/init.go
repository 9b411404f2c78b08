// Package extras registers the access_audit table migration used by the
// bundled audit sink.
package extras

import (
	"io/fs"

	access "github.com/stackwise/go-access"
	"github.com/stackwise/go-access/migrations"
)

func init() {
	auditFS, err := fs.Sub(access.GetAuditMigrationsFS(), "data/sql/migrations/extras")
	if err != nil {
		return
	}
	migrations.Register(auditFS)
}
