package access

import "github.com/stackwise/go-access/service"

// Re-export the service package entry point so consumers can do `access.New(...)`
// without importing internal wiring helpers.
type (
	Service  = service.Service
	Config   = service.Config
	Commands = service.Commands
	Queries  = service.Queries
)

// AuditHooks wraps store hooks so role, assignment, and override changes also
// land in the audit sink.
var AuditHooks = service.AuditHooks

// New constructs the go-access runtime using the provided configuration.
func New(cfg Config) (*Service, error) {
	return service.New(cfg)
}
