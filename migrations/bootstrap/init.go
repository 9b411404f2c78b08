// Package bootstrap registers a minimal users table migration for hosts that
// run go-access without an existing identity schema. Import it for the side
// effect:
//
//	import _ "github.com/stackwise/go-access/migrations/bootstrap"
package bootstrap

import (
	"io/fs"

	access "github.com/stackwise/go-access"
	"github.com/stackwise/go-access/migrations"
)

func init() {
	usersFS, err := fs.Sub(access.GetUsersBootstrapMigrationsFS(), "data/sql/migrations/auth")
	if err != nil {
		return
	}
	migrations.Register(usersFS)
}
