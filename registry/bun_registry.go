package registry

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/permission"
	"github.com/stackwise/go-access/pkg/types"
	"github.com/uptrace/bun"
)

var (
	// ErrRoleNameRequired occurs when a role mutation omits the name.
	ErrRoleNameRequired = errors.New("go-access: role name required")
	// ErrAnchorRequired occurs when a role mutation omits the tenant anchor.
	ErrAnchorRequired = errors.New("go-access: custom roles require a tenant anchor")
	// ErrRoleInUse indicates a role cannot be deleted while users reference it.
	ErrRoleInUse = errors.New("go-access: role is still referenced by users")
	// ErrTemplateCategoryMismatch indicates the referenced template belongs to
	// the other tenant side.
	ErrTemplateCategoryMismatch = errors.New("go-access: template category does not match role anchor")
	// ErrTemplateNotFound indicates the referenced template does not exist.
	ErrTemplateNotFound = errors.New("go-access: role template not found")
	// ErrRoleNotFound indicates no role matched the id within the anchor.
	ErrRoleNotFound = errors.New("go-access: custom role not found")
)

// RoleStoreConfig configures the Bun-backed role store.
type RoleStoreConfig struct {
	DB          *bun.DB
	Roles       repository.Repository[*CustomRole]
	Templates   repository.Repository[*RoleTemplate]
	Permissions *permission.Registry
	Clock       types.Clock
	Hooks       types.Hooks
	Logger      types.Logger
	IDGenerator types.IDGenerator
}

// RoleStore persists role templates, custom roles, and permission overrides
// using Bun repositories. Override replacement runs inside one transaction so
// a concurrent resolver read never sees a role with half its overrides.
type RoleStore struct {
	db          *bun.DB
	roles       repository.Repository[*CustomRole]
	templates   repository.Repository[*RoleTemplate]
	permissions *permission.Registry
	clock       types.Clock
	hooks       types.Hooks
	logger      types.Logger
	idGen       types.IDGenerator
}

var _ types.RoleStore = (*RoleStore)(nil)

// NewRoleStore constructs the default store. DB is required for the
// transactional paths; repositories are created from it when not supplied.
func NewRoleStore(cfg RoleStoreConfig, opts ...StoreOption) (*RoleStore, error) {
	if cfg.DB == nil {
		return nil, errors.New("role store: db required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	idGen := cfg.IDGenerator
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	registry := cfg.Permissions
	if registry == nil {
		registry = permission.DefaultRegistry()
	}

	rolesRepo := cfg.Roles
	if rolesRepo == nil {
		rolesRepo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*CustomRole]{
			NewRecord: func() *CustomRole { return &CustomRole{} },
			GetID: func(role *CustomRole) uuid.UUID {
				if role == nil {
					return uuid.Nil
				}
				return role.ID
			},
			SetID: func(role *CustomRole, id uuid.UUID) {
				if role != nil {
					role.ID = id
				}
			},
		})
	}
	templatesRepo := cfg.Templates
	if templatesRepo == nil {
		templatesRepo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*RoleTemplate]{
			NewRecord: func() *RoleTemplate { return &RoleTemplate{} },
			GetID: func(template *RoleTemplate) uuid.UUID {
				if template == nil {
					return uuid.Nil
				}
				return template.ID
			},
			SetID: func(template *RoleTemplate, id uuid.UUID) {
				if template != nil {
					template.ID = id
				}
			},
		})
	}

	options := applyStoreOptions(opts)
	if options.cacheEnabled {
		cached, err := wrapWithCache(rolesRepo, options)
		if err != nil {
			return nil, err
		}
		rolesRepo = cached
	}

	return &RoleStore{
		db:          cfg.DB,
		roles:       rolesRepo,
		templates:   templatesRepo,
		permissions: registry,
		clock:       clock,
		hooks:       cfg.Hooks,
		logger:      logger,
		idGen:       idGen,
	}, nil
}

// CreateRole inserts a custom role plus its override rows in one transaction.
// Stored patterns are validated against the permission registry; unknown
// patterns are rejected instead of persisted.
func (s *RoleStore) CreateRole(ctx context.Context, input types.RoleMutation) (*types.CustomRole, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrRoleNameRequired
	}
	if input.Anchor.IsZero() {
		return nil, ErrAnchorRequired
	}
	if err := s.validateOverrides(input.Overrides); err != nil {
		return nil, err
	}
	template, err := s.resolveTemplate(ctx, input.TemplateID, input.Anchor)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	role := &CustomRole{
		ID:             s.idGen.UUID(),
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		OrganizationID: input.Anchor.OrganizationID,
		CustomerID:     input.Anchor.CustomerID,
		TemplateID:     input.TemplateID,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      input.ActorID,
		UpdatedBy:      input.ActorID,
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(role).Exec(ctx); err != nil {
			return err
		}
		return insertOverrideRows(ctx, tx, role.ID, input.Overrides)
	})
	if err != nil {
		return nil, err
	}

	result := toDomainRole(role, template, input.Overrides)
	s.emitRoleEvent(ctx, types.RoleEvent{
		RoleID:     role.ID,
		Action:     "role.created",
		ActorID:    input.ActorID,
		Anchor:     input.Anchor,
		OccurredAt: now,
	})
	return result, nil
}

// UpdateRole replaces the role's mutable fields and its full override list in
// one transaction. Edits are full-replace on purpose: the stored list always
// reflects exactly what the admin last saved.
func (s *RoleStore) UpdateRole(ctx context.Context, id uuid.UUID, input types.RoleMutation) (*types.CustomRole, error) {
	role, err := s.getRoleRecord(ctx, id, input.Anchor)
	if err != nil {
		return nil, err
	}
	if err := s.validateOverrides(input.Overrides); err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		role.Name = name
	}
	role.Description = strings.TrimSpace(input.Description)
	if input.TemplateID != uuid.Nil {
		role.TemplateID = input.TemplateID
	}
	template, err := s.resolveTemplate(ctx, role.TemplateID, input.Anchor)
	if err != nil {
		return nil, err
	}
	role.UpdatedAt = s.clock.Now()
	role.UpdatedBy = input.ActorID

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().Model(role).WherePK().Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*RolePermissionOverride)(nil)).
			Where("role_id = ?", role.ID).
			Exec(ctx); err != nil {
			return err
		}
		return insertOverrideRows(ctx, tx, role.ID, input.Overrides)
	})
	if err != nil {
		return nil, err
	}

	s.emitRoleEvent(ctx, types.RoleEvent{
		RoleID:     role.ID,
		Action:     "role.updated",
		ActorID:    input.ActorID,
		Anchor:     input.Anchor,
		OccurredAt: role.UpdatedAt,
	})
	return toDomainRole(role, template, input.Overrides), nil
}

// DeleteRole removes a custom role and its overrides. Deletion is refused
// while any user still references the role.
func (s *RoleStore) DeleteRole(ctx context.Context, id uuid.UUID, anchor types.TenantAnchor, actor uuid.UUID) error {
	role, err := s.getRoleRecord(ctx, id, anchor)
	if err != nil {
		return err
	}
	count, err := s.db.NewSelect().
		Model((*roleUserRef)(nil)).
		Where("custom_role_id = ?", role.ID).
		Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return goerrors.Wrap(ErrRoleInUse, goerrors.CategoryValidation, "go-access: cannot delete role").
			WithCode(goerrors.CodeBadRequest)
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*RolePermissionOverride)(nil)).
			Where("role_id = ?", role.ID).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().Model(role).WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}

	s.emitRoleEvent(ctx, types.RoleEvent{
		RoleID:     role.ID,
		Action:     "role.deleted",
		ActorID:    actor,
		Anchor:     anchor,
		OccurredAt: s.clock.Now(),
	})
	return nil
}

// GetRole returns the role with its template and ordered overrides joined,
// ready for the resolver.
func (s *RoleStore) GetRole(ctx context.Context, id uuid.UUID, anchor types.TenantAnchor) (*types.CustomRole, error) {
	role, err := s.getRoleRecord(ctx, id, anchor)
	if err != nil {
		return nil, err
	}
	overrides, err := s.loadOverrides(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	var template *types.RoleTemplate
	if role.TemplateID != uuid.Nil {
		template, err = s.GetTemplate(ctx, role.TemplateID)
		if err != nil && !errors.Is(err, ErrTemplateNotFound) {
			return nil, err
		}
		// A deleted template degrades to "no template"; resolution skips
		// the defaults layer.
	}
	return toDomainRole(role, template, overrides), nil
}

// ListRoles returns paginated roles for the tenant anchor.
func (s *RoleStore) ListRoles(ctx context.Context, filter types.RoleFilter) (types.RolePage, error) {
	pagination := normalizePagination(filter.Pagination, 50, 200)
	criteria := []repository.SelectCriteria{
		anchorSelectCriteria(filter.Anchor),
		func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.OrderExpr("LOWER(name) ASC").
				Limit(pagination.Limit).
				Offset(pagination.Offset)
			if filter.Keyword != "" {
				keyword := "%" + strings.ToLower(strings.TrimSpace(filter.Keyword)) + "%"
				q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", keyword, keyword)
			}
			return q
		},
	}
	records, total, err := s.roles.List(ctx, criteria...)
	if err != nil {
		return types.RolePage{}, err
	}
	roles := make([]types.CustomRole, 0, len(records))
	for _, record := range records {
		overrides, err := s.loadOverrides(ctx, record.ID)
		if err != nil {
			return types.RolePage{}, err
		}
		roles = append(roles, *toDomainRole(record, nil, overrides))
	}
	return types.RolePage{
		Roles:      roles,
		Total:      total,
		NextOffset: pagination.Offset + pagination.Limit,
		HasMore:    pagination.Offset+pagination.Limit < total,
	}, nil
}

// GetTemplate returns one seeded template.
func (s *RoleStore) GetTemplate(ctx context.Context, id uuid.UUID) (*types.RoleTemplate, error) {
	record, err := s.templates.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return toDomainTemplate(record), nil
}

// ListTemplates returns seeded templates, optionally filtered by category.
func (s *RoleStore) ListTemplates(ctx context.Context, category types.RoleCategory) ([]types.RoleTemplate, error) {
	records, _, err := s.templates.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.OrderExpr("code ASC")
		if category != "" {
			q = q.Where("category = ?", string(category))
		}
		return q
	})
	if err != nil {
		return nil, err
	}
	out := make([]types.RoleTemplate, 0, len(records))
	for _, record := range records {
		out = append(out, *toDomainTemplate(record))
	}
	return out, nil
}

// ReplaceUserOverrides swaps the user's full override list in one
// transaction, stamping each row with the granting actor for the audit
// trail.
func (s *RoleStore) ReplaceUserOverrides(ctx context.Context, actor types.ActorRef, userID uuid.UUID, overrides []types.UserPermissionOverride) error {
	if actor.ID == uuid.Nil {
		return types.ErrActorRequired
	}
	if userID == uuid.Nil {
		return types.ErrUserIDRequired
	}
	now := s.clock.Now()
	rows := make([]UserPermissionOverride, 0, len(overrides))
	for position, override := range overrides {
		if _, err := s.permissions.ValidatePattern(override.Pattern); err != nil {
			return err
		}
		grantedBy := override.GrantedBy
		if grantedBy == uuid.Nil {
			grantedBy = actor.ID
		}
		rows = append(rows, UserPermissionOverride{
			UserID:    userID,
			Position:  position,
			Pattern:   override.Pattern,
			Granted:   override.Granted,
			GrantedBy: grantedBy,
			Reason:    strings.TrimSpace(override.Reason),
			GrantedAt: now,
		})
	}

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*UserPermissionOverride)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}

	s.emitOverrideEvent(ctx, types.RoleEvent{
		UserID:     userID,
		Action:     "user_overrides.replaced",
		ActorID:    actor.ID,
		OccurredAt: now,
	})
	return nil
}

// ListUserOverrides returns the user's overrides in stored order.
func (s *RoleStore) ListUserOverrides(ctx context.Context, userID uuid.UUID) ([]types.UserPermissionOverride, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	var records []UserPermissionOverride
	err := s.db.NewSelect().
		Model(&records).
		Where("user_id = ?", userID).
		OrderExpr("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.UserPermissionOverride, 0, len(records))
	for _, record := range records {
		out = append(out, types.UserPermissionOverride{
			UserID:    record.UserID,
			Pattern:   record.Pattern,
			Granted:   record.Granted,
			GrantedBy: record.GrantedBy,
			Reason:    record.Reason,
			GrantedAt: record.GrantedAt,
		})
	}
	return out, nil
}

func (s *RoleStore) getRoleRecord(ctx context.Context, id uuid.UUID, anchor types.TenantAnchor) (*CustomRole, error) {
	record, err := s.roles.GetByID(ctx, id.String(), anchorSelectCriteria(anchor))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.Wrap(ErrRoleNotFound, goerrors.CategoryNotFound, "go-access: role lookup failed").
				WithCode(goerrors.CodeNotFound)
		}
		return nil, err
	}
	return record, nil
}

func (s *RoleStore) resolveTemplate(ctx context.Context, templateID uuid.UUID, anchor types.TenantAnchor) (*types.RoleTemplate, error) {
	if templateID == uuid.Nil {
		return nil, nil
	}
	template, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if template.Category != anchor.Category() {
		return nil, goerrors.Wrap(ErrTemplateCategoryMismatch, goerrors.CategoryValidation, "go-access: invalid template reference").
			WithCode(goerrors.CodeBadRequest)
	}
	return template, nil
}

func (s *RoleStore) validateOverrides(overrides []types.PermissionOverride) error {
	for _, override := range overrides {
		if _, err := s.permissions.ValidatePattern(override.Pattern); err != nil {
			return err
		}
	}
	return nil
}

func (s *RoleStore) loadOverrides(ctx context.Context, roleID uuid.UUID) ([]types.PermissionOverride, error) {
	var records []RolePermissionOverride
	err := s.db.NewSelect().
		Model(&records).
		Where("role_id = ?", roleID).
		OrderExpr("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.PermissionOverride, 0, len(records))
	for _, record := range records {
		out = append(out, types.PermissionOverride{
			Pattern: record.Pattern,
			Granted: record.Granted,
		})
	}
	return out, nil
}

func (s *RoleStore) emitRoleEvent(ctx context.Context, event types.RoleEvent) {
	emit(ctx, s.hooks.AfterRoleChange, event, s.logger, "AfterRoleChange")
}

func (s *RoleStore) emitOverrideEvent(ctx context.Context, event types.RoleEvent) {
	emit(ctx, s.hooks.AfterOverrideChange, event, s.logger, "AfterOverrideChange")
}

func emit(ctx context.Context, hook func(context.Context, types.RoleEvent), event types.RoleEvent, logger types.Logger, name string) {
	if hook == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("role hook panic", errors.New("panic in "+name), "panic", rec)
		}
	}()
	hook(ctx, event)
}

func insertOverrideRows(ctx context.Context, tx bun.Tx, roleID uuid.UUID, overrides []types.PermissionOverride) error {
	if len(overrides) == 0 {
		return nil
	}
	rows := make([]RolePermissionOverride, 0, len(overrides))
	for position, override := range overrides {
		rows = append(rows, RolePermissionOverride{
			RoleID:   roleID,
			Position: position,
			Pattern:  override.Pattern,
			Granted:  override.Granted,
		})
	}
	_, err := tx.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func anchorSelectCriteria(anchor types.TenantAnchor) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("organization_id = ? AND customer_id = ?", anchor.OrganizationID, anchor.CustomerID)
	}
}

func toDomainRole(record *CustomRole, template *types.RoleTemplate, overrides []types.PermissionOverride) *types.CustomRole {
	if record == nil {
		return nil
	}
	copied := make([]types.PermissionOverride, len(overrides))
	copy(copied, overrides)
	return &types.CustomRole{
		ID:             record.ID,
		Name:           record.Name,
		Description:    record.Description,
		OrganizationID: record.OrganizationID,
		CustomerID:     record.CustomerID,
		TemplateID:     record.TemplateID,
		Template:       template,
		Overrides:      copied,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
		CreatedBy:      record.CreatedBy,
		UpdatedBy:      record.UpdatedBy,
	}
}

func toDomainTemplate(record *RoleTemplate) *types.RoleTemplate {
	if record == nil {
		return nil
	}
	return &types.RoleTemplate{
		ID:                 record.ID,
		Code:               record.Code,
		Name:               record.Name,
		Description:        record.Description,
		Category:           types.RoleCategory(record.Category),
		DefaultPermissions: append([]string{}, record.DefaultPermissions...),
		IsSystem:           record.IsSystem,
		CreatedAt:          record.CreatedAt,
		UpdatedAt:          record.UpdatedAt,
	}
}

func normalizePagination(p types.Pagination, def, max int) types.Pagination {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
