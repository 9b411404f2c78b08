// Package service wires the engine together: the permission resolver, the
// scope builder, the stores, and the command/query facades the host
// application invokes.
package service

import (
	"context"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/stackwise/go-access/audit"
	"github.com/stackwise/go-access/command"
	"github.com/stackwise/go-access/permission"
	"github.com/stackwise/go-access/pkg/types"
	"github.com/stackwise/go-access/query"
	"github.com/stackwise/go-access/scope"
)

// Service is the entry point for go-access. It owns the resolver and scope
// builder and exposes command/query facades over the injected stores.
type Service struct {
	cfg      Config
	resolver *permission.Resolver
	builder  *scope.Builder
	commands Commands
	queries  Queries
}

// Commands exposes the mutation handlers.
type Commands struct {
	CreateRole           *command.CreateRoleCommand
	UpdateRole           *command.UpdateRoleCommand
	DeleteRole           *command.DeleteRoleCommand
	ReplaceUserOverrides *command.ReplaceUserOverridesCommand
	SetAssignments       *command.SetAssignmentsCommand
	SeedTemplates        *command.SeedTemplatesCommand
}

// Queries exposes the read handlers.
type Queries struct {
	RoleList             *query.RoleListQuery
	RoleDetail           *query.RoleDetailQuery
	TemplateList         *query.TemplateListQuery
	EffectivePermissions *query.EffectivePermissionsQuery
	VisibleCustomers     *query.VisibleCustomersQuery
	UserOverrides        *query.UserOverridesQuery
}

// Config captures the service dependencies. Stores are constructed by the
// host (typically Bun-backed) so cached or fake implementations can be
// swapped in.
type Config struct {
	RoleStore       types.RoleStore
	AssignmentStore types.AssignmentStore
	LinkStore       types.LinkStore
	UserLoader      types.UserLoader
	AuditSink       audit.Sink
	FeatureGate     featuregate.FeatureGate
	Registry        *permission.Registry
	ScopeResources  []scope.Resource
	Hooks           types.Hooks
	Clock           types.Clock
	IDGenerator     types.IDGenerator
	Logger          types.Logger
}

// New constructs a Service from the supplied configuration.
func New(cfg Config) (*Service, error) {
	cfg = normalizeConfig(cfg)

	builder, err := scope.NewBuilder(scope.BuilderConfig{
		LinkStore:       cfg.LinkStore,
		AssignmentStore: cfg.AssignmentStore,
		Resources:       cfg.ScopeResources,
		Logger:          cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg: cfg,
		resolver: permission.NewResolver(permission.ResolverConfig{
			Registry: cfg.Registry,
			Logger:   cfg.Logger,
		}),
		builder: builder,
	}
	s.commands = s.buildCommands()
	s.queries = s.buildQueries()
	return s, nil
}

func normalizeConfig(cfg Config) Config {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = types.UUIDGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	if cfg.Registry == nil {
		cfg.Registry = permission.DefaultRegistry()
	}
	return cfg
}

// Commands returns the command facade.
func (s *Service) Commands() Commands {
	return s.commands
}

// Queries returns the query facade.
func (s *Service) Queries() Queries {
	return s.queries
}

// HasPermission resolves the user's layered permission set and evaluates the
// code against it. Malformed codes are denied.
func (s *Service) HasPermission(user types.ResolvedUser, code string) bool {
	return s.resolver.HasPermission(user, code)
}

// Resolve returns the user's full effective permission set.
func (s *Service) Resolve(user types.ResolvedUser) permission.Set {
	return s.resolver.Resolve(user)
}

// BuildScope resolves the tenant visibility predicate for the user and
// resource. Permission grants never influence the result.
func (s *Service) BuildScope(ctx context.Context, user types.ResolvedUser, resource scope.Resource, opts ...scope.BuildOption) (scope.Predicate, error) {
	return s.builder.BuildScope(ctx, user, resource, opts...)
}

// ScopeBuilder exposes the builder so transports can reuse it directly.
func (s *Service) ScopeBuilder() *scope.Builder {
	return s.builder
}

// Resolver exposes the permission resolver.
func (s *Service) Resolver() *permission.Resolver {
	return s.resolver
}

// AuditSink returns the configured sink so transports can emit their own
// records alongside the engine's.
func (s *Service) AuditSink() audit.Sink {
	if s == nil {
		return nil
	}
	return s.cfg.AuditSink
}

// AuditHooks wraps the supplied hooks so every mutation event also lands in
// the audit sink. Hosts build these before constructing their stores and pass
// the result into the store configurations. A failed audit write is logged
// and never fails the mutation.
func AuditHooks(sink audit.Sink, logger types.Logger, base types.Hooks) types.Hooks {
	if sink == nil {
		return base
	}
	if logger == nil {
		logger = types.NopLogger{}
	}
	record := func(ctx context.Context, event types.RoleEvent) {
		if err := sink.Log(ctx, audit.FromRoleEvent(event, nil)); err != nil {
			logger.Error("audit write failed", err, "action", event.Action)
		}
	}
	return types.Hooks{
		AfterRoleChange: func(ctx context.Context, event types.RoleEvent) {
			record(ctx, event)
			if base.AfterRoleChange != nil {
				base.AfterRoleChange(ctx, event)
			}
		},
		AfterOverrideChange: func(ctx context.Context, event types.RoleEvent) {
			record(ctx, event)
			if base.AfterOverrideChange != nil {
				base.AfterOverrideChange(ctx, event)
			}
		},
		AfterAssignmentChange: func(ctx context.Context, event types.RoleEvent) {
			record(ctx, event)
			if base.AfterAssignmentChange != nil {
				base.AfterAssignmentChange(ctx, event)
			}
		},
	}
}

// Ready reports whether the service has the required dependencies wired in.
func (s *Service) Ready() bool {
	return s != nil &&
		s.cfg.RoleStore != nil &&
		s.cfg.AssignmentStore != nil &&
		s.cfg.LinkStore != nil
}

// HealthCheck surfaces missing configuration so upstream transports fail
// fast instead of serving misconfigured authorization.
func (s *Service) HealthCheck(ctx context.Context) error {
	if !s.Ready() {
		return types.ErrServiceNotReady
	}
	if s.cfg.RoleStore == nil {
		return types.ErrMissingRoleStore
	}
	return nil
}

func (s *Service) buildCommands() Commands {
	commands := Commands{
		CreateRole:           command.NewCreateRoleCommand(s.cfg.RoleStore),
		UpdateRole:           command.NewUpdateRoleCommand(s.cfg.RoleStore),
		DeleteRole:           command.NewDeleteRoleCommand(s.cfg.RoleStore),
		ReplaceUserOverrides: command.NewReplaceUserOverridesCommand(s.cfg.RoleStore, s.cfg.FeatureGate),
		SetAssignments:       command.NewSetAssignmentsCommand(s.cfg.AssignmentStore),
	}
	if seeder, ok := s.cfg.RoleStore.(command.TemplateSeeder); ok {
		commands.SeedTemplates = command.NewSeedTemplatesCommand(seeder)
	}
	return commands
}

func (s *Service) buildQueries() Queries {
	return Queries{
		RoleList:             query.NewRoleListQuery(s.cfg.RoleStore),
		RoleDetail:           query.NewRoleDetailQuery(s.cfg.RoleStore),
		TemplateList:         query.NewTemplateListQuery(s.cfg.RoleStore),
		EffectivePermissions: query.NewEffectivePermissionsQuery(s.cfg.UserLoader, s.resolver),
		VisibleCustomers:     query.NewVisibleCustomersQuery(s.cfg.UserLoader, s.builder, s.cfg.FeatureGate),
		UserOverrides:        query.NewUserOverridesQuery(s.cfg.RoleStore),
	}
}
