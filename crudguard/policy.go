package crudguard

import (
	"fmt"
	"maps"

	"github.com/goliatone/go-crud"
)

// DefaultPermissionMap maps every go-crud operation onto a permission code
// derived from the domain object, e.g. "measurement" yields measurement.read
// for reads and measurement.update for updates. Pass the result to Config and
// override individual entries when a route needs a different code.
func DefaultPermissionMap(object string) map[crud.CrudOperation]string {
	read := fmt.Sprintf("%s.read", object)
	return map[crud.CrudOperation]string{
		crud.OpRead:        read,
		crud.OpList:        read,
		crud.OpCreate:      fmt.Sprintf("%s.create", object),
		crud.OpCreateBatch: fmt.Sprintf("%s.create", object),
		crud.OpUpdate:      fmt.Sprintf("%s.update", object),
		crud.OpUpdateBatch: fmt.Sprintf("%s.update", object),
		crud.OpDelete:      fmt.Sprintf("%s.delete", object),
		crud.OpDeleteBatch: fmt.Sprintf("%s.delete", object),
	}
}

func clonePermissionMap(src map[crud.CrudOperation]string) map[crud.CrudOperation]string {
	dst := make(map[crud.CrudOperation]string, len(src))
	maps.Copy(dst, src)
	return dst
}
