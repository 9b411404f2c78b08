package permission

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stackwise/go-access/pkg/types"
)

// Registry is the closed catalogue of resources, actions, and system-role
// base grants. Stored grants are validated against it at write time so a
// typo'd pattern is rejected instead of silently never matching.
type Registry struct {
	resources  map[string]map[string]struct{}
	baseGrants map[types.SystemRole][]Pattern
}

// DefaultRegistry returns the registry matching the platform's seeded
// resources and role grants.
func DefaultRegistry() *Registry {
	registry := &Registry{
		resources:  make(map[string]map[string]struct{}),
		baseGrants: make(map[types.SystemRole][]Pattern),
	}

	crud := []string{"create", "read", "update", "delete"}
	registry.registerResource("customer", append(crud, "view")...)
	registry.registerResource("user", crud...)
	registry.registerResource("measurement", append(crud, "comment")...)
	registry.registerResource("report", crud...)
	registry.registerResource("stack", crud...)
	registry.registerResource("item", crud...)
	registry.registerResource("limit", crud...)
	registry.registerResource("contract", crud...)
	registry.registerResource("communication", crud...)
	registry.registerResource("connection", "read", "approve", "reject", "disconnect")
	registry.registerResource("organization", "read", "update", "settings")
	registry.registerResource("assignment", crud...)
	registry.registerResource("group", "read", "update")
	registry.registerResource("alert", "manage")

	orgAdmin := patterns(
		"customer.*", "user.*", "measurement.*", "report.*",
		"stack.*", "item.*", "limit.*", "connection.*",
		"organization.*", "assignment.*", "contract.*", "communication.*",
	)
	operator := patterns(
		"customer.read", "measurement.create", "measurement.update",
		"measurement.read", "stack.read", "item.read", "limit.read",
		"report.read", "communication.read",
	)
	customerAdmin := patterns(
		"measurement.read", "report.read", "stack.read", "stack.update",
		"user.create", "user.read", "user.update", "connection.approve",
		"measurement.comment", "alert.manage", "communication.read",
	)
	customerUser := patterns("measurement.read", "report.read", "stack.read")
	groupAdmin := append(patterns("group.read", "group.update"), customerAdmin...)

	registry.baseGrants = map[types.SystemRole][]Pattern{
		types.SystemRoleSuperAdmin:         {Global()},
		types.SystemRoleOrgAdmin:           orgAdmin,
		types.SystemRoleOperator:           operator,
		types.SystemRoleCustomerAdmin:      customerAdmin,
		types.SystemRoleCustomerUser:       customerUser,
		types.SystemRoleCustomerSiteAdmin:  customerAdmin,
		types.SystemRoleCustomerSiteUser:   customerUser,
		types.SystemRoleCustomerGroupAdmin: groupAdmin,
		types.SystemRoleCustomerGroupUser:  customerUser,
	}
	return registry
}

func (r *Registry) registerResource(resource string, actions ...string) {
	set := make(map[string]struct{}, len(actions))
	for _, action := range actions {
		set[action] = struct{}{}
	}
	r.resources[resource] = set
}

// BaseGrants returns the system-role base grants. Unknown or unmapped roles
// resolve to an empty slice so downstream resolution fails closed.
func (r *Registry) BaseGrants(role types.SystemRole) []Pattern {
	grants := r.baseGrants[role]
	out := make([]Pattern, len(grants))
	copy(out, grants)
	return out
}

// KnownResource reports whether the resource exists in the catalogue.
func (r *Registry) KnownResource(resource string) bool {
	_, ok := r.resources[resource]
	return ok
}

// KnownCode reports whether the exact code names a real resource/action pair.
func (r *Registry) KnownCode(code Code) bool {
	actions, ok := r.resources[code.Resource()]
	if !ok {
		return false
	}
	_, ok = actions[code.Action()]
	return ok
}

// ValidatePattern parses the raw pattern and checks it against the
// catalogue. Grant-time writes must reject anything this returns an error
// for.
func (r *Registry) ValidatePattern(raw string) (Pattern, error) {
	pattern, err := ParsePattern(raw)
	if err != nil {
		return Pattern{}, err
	}
	switch {
	case pattern.IsGlobal():
		return pattern, nil
	case pattern.IsWildcard():
		if !r.KnownResource(pattern.Resource()) {
			return Pattern{}, unknownPattern(raw)
		}
		return pattern, nil
	default:
		code, err := ParseCode(pattern.String())
		if err != nil {
			return Pattern{}, err
		}
		if !r.KnownCode(code) {
			return Pattern{}, unknownPattern(raw)
		}
		return pattern, nil
	}
}

// ValidatePatterns validates a batch, returning the typed patterns in input
// order.
func (r *Registry) ValidatePatterns(raw []string) ([]Pattern, error) {
	out := make([]Pattern, 0, len(raw))
	for _, value := range raw {
		pattern, err := r.ValidatePattern(value)
		if err != nil {
			return nil, err
		}
		out = append(out, pattern)
	}
	return out, nil
}

func unknownPattern(raw string) error {
	return goerrors.New(fmt.Sprintf("go-access: pattern %q does not name a registered resource/action", raw), goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode("PERMISSION_PATTERN_UNKNOWN")
}

func patterns(raw ...string) []Pattern {
	out := make([]Pattern, 0, len(raw))
	for _, value := range raw {
		out = append(out, MustPattern(value))
	}
	return out
}
