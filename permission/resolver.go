package permission

import (
	"github.com/stackwise/go-access/pkg/types"
)

// Resolver computes the effective permission set for a loaded user. It is a
// pure function of the user's joined records: no I/O, no in-process cache, so
// it is safe to call concurrently and always reflects the rows the loader
// handed over.
type Resolver struct {
	registry *Registry
	logger   types.Logger
}

// ResolverConfig wires optional collaborators; missing values default.
type ResolverConfig struct {
	Registry *Registry
	Logger   types.Logger
}

// NewResolver constructs a resolver backed by the provided registry.
func NewResolver(cfg ResolverConfig) *Resolver {
	registry := cfg.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Resolver{registry: registry, logger: logger}
}

// Resolve applies the override layers in order and returns the final set:
//
//  1. system-role base grants (unmapped role: empty set, fail closed)
//  2. custom-role template defaults, when a template is joined
//  3. role-level overrides in list order (granted adds, revoked removes)
//  4. user-level overrides in list order, with final say
//
// A dangling custom role reference (nil CustomRole) skips layers 2-3 only;
// user overrides still apply.
func (r *Resolver) Resolve(user types.ResolvedUser) Set {
	set := NewSet(r.registry.BaseGrants(user.Role)...)

	if role := user.CustomRole; role != nil {
		if role.Template != nil {
			for _, raw := range role.Template.DefaultPermissions {
				pattern, err := ParsePattern(raw)
				if err != nil {
					r.logger.Error("skipping malformed template pattern", err, "pattern", raw, "template", role.Template.Code)
					continue
				}
				set.Add(pattern)
			}
		}
		applyOverrides(set, role.Overrides, r.logger)
	}

	userOverrides := make([]types.PermissionOverride, 0, len(user.Overrides))
	for _, override := range user.Overrides {
		userOverrides = append(userOverrides, types.PermissionOverride{
			Pattern: override.Pattern,
			Granted: override.Granted,
		})
	}
	applyOverrides(set, userOverrides, r.logger)

	return set
}

// HasPermission reports whether the user's effective set allows the code.
// Malformed codes never match.
func (r *Resolver) HasPermission(user types.ResolvedUser, rawCode string) bool {
	code, err := ParseCode(rawCode)
	if err != nil {
		r.logger.Debug("rejecting malformed permission code", "code", rawCode)
		return false
	}
	return r.Resolve(user).Allows(code)
}

// Registry exposes the catalogue backing this resolver so write paths can
// validate grants against the same source of truth.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

func applyOverrides(set Set, overrides []types.PermissionOverride, logger types.Logger) {
	for _, override := range overrides {
		pattern, err := ParsePattern(override.Pattern)
		if err != nil {
			logger.Error("skipping malformed override pattern", err, "pattern", override.Pattern)
			continue
		}
		if override.Granted {
			set.Add(pattern)
		} else {
			set.Remove(pattern)
		}
	}
}
