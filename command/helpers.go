package command

import (
	"strings"

	"github.com/google/uuid"
	"github.com/stackwise/go-access/pkg/types"
)

func validateRoleMutation(actor types.ActorRef, name string, anchor types.TenantAnchor) error {
	if actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}
	if strings.TrimSpace(name) == "" {
		return ErrRoleNameRequired
	}
	if anchor.IsZero() {
		return ErrAnchorRequired
	}
	return nil
}

func validateRoleTarget(roleID uuid.UUID, actor types.ActorRef) error {
	if roleID == uuid.Nil {
		return ErrRoleIDRequired
	}
	if actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

func validateUserTarget(userID uuid.UUID, actor types.ActorRef) error {
	if userID == uuid.Nil {
		return ErrUserIDRequired
	}
	if actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}
