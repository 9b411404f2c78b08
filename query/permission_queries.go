package query

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/permission"
	"github.com/stackwise/go-access/pkg/types"
)

// EffectivePermissionsInput resolves the full layered permission set for a
// user, for admin inspection surfaces.
type EffectivePermissionsInput struct {
	UserID uuid.UUID
}

// Type implements gocommand.Message.
func (EffectivePermissionsInput) Type() string {
	return "query.permissions.effective"
}

// Validate implements gocommand.Message.
func (input EffectivePermissionsInput) Validate() error {
	if input.UserID == uuid.Nil {
		return types.ErrUserIDRequired
	}
	return nil
}

// EffectivePermissions is the resolved output: the user's role plus the
// sorted patterns that survived every layer.
type EffectivePermissions struct {
	UserID   uuid.UUID
	Role     types.SystemRole
	Patterns []string
}

// Allows reports whether the resolved set grants the code. It re-parses the
// patterns, so the answer matches what HasPermission would say.
func (e EffectivePermissions) Allows(code string) bool {
	set := permission.NewSet()
	for _, raw := range e.Patterns {
		pattern, err := permission.ParsePattern(raw)
		if err != nil {
			continue
		}
		set.Add(pattern)
	}
	parsed, err := permission.ParseCode(code)
	if err != nil {
		return false
	}
	return set.Allows(parsed)
}

// EffectivePermissionsQuery loads the user and runs the resolver.
type EffectivePermissionsQuery struct {
	loader   types.UserLoader
	resolver *permission.Resolver
}

// NewEffectivePermissionsQuery constructs the query. A nil resolver gets the
// default registry.
func NewEffectivePermissionsQuery(loader types.UserLoader, resolver *permission.Resolver) *EffectivePermissionsQuery {
	if resolver == nil {
		resolver = permission.NewResolver(permission.ResolverConfig{})
	}
	return &EffectivePermissionsQuery{loader: loader, resolver: resolver}
}

var _ gocommand.Querier[EffectivePermissionsInput, EffectivePermissions] = (*EffectivePermissionsQuery)(nil)

// Query resolves the user's effective permission set.
func (q *EffectivePermissionsQuery) Query(ctx context.Context, input EffectivePermissionsInput) (EffectivePermissions, error) {
	if q.loader == nil {
		return EffectivePermissions{}, types.ErrMissingUserLoader
	}
	if err := input.Validate(); err != nil {
		return EffectivePermissions{}, err
	}
	user, err := q.loader.LoadUser(ctx, input.UserID)
	if err != nil {
		return EffectivePermissions{}, err
	}
	set := q.resolver.Resolve(*user)
	return EffectivePermissions{
		UserID:   user.ID,
		Role:     user.Role,
		Patterns: set.Patterns(),
	}, nil
}
