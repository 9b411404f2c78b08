package migrations

import (
	"io/fs"

	access "github.com/stackwise/go-access"
)

func init() {
	coreFS, err := fs.Sub(access.GetCoreMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return
	}
	Register(coreFS)
}
