package command

import (
	"errors"

	"github.com/stackwise/go-access/pkg/types"
)

var (
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = types.ErrActorRequired
	// ErrUserIDRequired occurs when override or assignment commands omit the user.
	ErrUserIDRequired = types.ErrUserIDRequired
	// ErrAdminRequired indicates the actor's role may not manage roles or
	// assignments.
	ErrAdminRequired = errors.New("go-access: admin role required")
	// ErrRoleNameRequired occurs when a role command omits the role name.
	ErrRoleNameRequired = errors.New("go-access: role name required")
	// ErrRoleIDRequired signals the role ID was missing.
	ErrRoleIDRequired = errors.New("go-access: role id required")
	// ErrAnchorRequired occurs when a role command omits the tenant anchor.
	ErrAnchorRequired = errors.New("go-access: tenant anchor required")
	// ErrUserOverridesDisabled indicates per-user overrides are disabled via
	// feature gate.
	ErrUserOverridesDisabled = errors.New("go-access: user permission overrides disabled")
)
