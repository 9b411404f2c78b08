// Package crudguard turns go-crud operations into authorization checks: the
// actor is resolved from the request context, the mapped permission code is
// evaluated against the user's effective set, and the tenant predicate is
// returned for the data layer to apply.
package crudguard

import (
	"fmt"

	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/permission"
	"github.com/stackwise/go-access/pkg/authctx"
	"github.com/stackwise/go-access/pkg/types"
	"github.com/stackwise/go-access/scope"
	"github.com/uptrace/bun"
)

const (
	textCodePermissionDenied  = "PERMISSION_DENIED"
	textCodeScopeFailed       = "SCOPE_ENFORCEMENT_FAILED"
	textCodeMissingPermission = "PERMISSION_MAP_MISSING"
	textCodeMissingContext    = "CONTEXT_MISSING"
)

// Config drives Adapter construction. One adapter guards one resource.
type Config struct {
	Loader        types.UserLoader
	Resolver      *permission.Resolver
	Builder       *scope.Builder
	Logger        types.Logger
	Resource      scope.Resource
	PermissionMap map[crud.CrudOperation]string
	ScopeColumn   string
}

// Adapter guards go-crud controllers with the permission resolver and the
// scope builder.
type Adapter struct {
	loader      types.UserLoader
	resolver    *permission.Resolver
	builder     *scope.Builder
	logger      types.Logger
	resource    scope.Resource
	codes       map[crud.CrudOperation]string
	scopeColumn string
}

// GuardInput captures per-request parameters supplied by transports.
type GuardInput struct {
	Context       crud.Context
	Operation     crud.CrudOperation
	Impersonation scope.Impersonation
	Bypass        *BypassConfig
}

// GuardResult carries the resolved user and the tenant predicate the data
// layer must apply to the statement.
type GuardResult struct {
	User         *types.ResolvedUser
	Predicate    scope.Predicate
	Operation    crud.CrudOperation
	Bypassed     bool
	BypassReason string
}

// BypassConfig explicitly allows guard skips for whitelisted routes (e.g.
// schema exports). It must never be enabled by default.
type BypassConfig struct {
	Enabled bool
	Reason  string
}

// NewAdapter constructs a guard adapter and validates the supplied config.
func NewAdapter(cfg Config) (*Adapter, error) {
	if cfg.Loader == nil {
		return nil, types.ErrMissingUserLoader
	}
	if cfg.Builder == nil {
		return nil, goerrors.New("go-access: crudguard requires a scope builder", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithTextCode(textCodeScopeFailed)
	}
	if len(cfg.PermissionMap) == 0 {
		return nil, goerrors.New("go-access: crudguard requires a permission map", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithTextCode(textCodeMissingPermission)
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = permission.NewResolver(permission.ResolverConfig{})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	scopeColumn := cfg.ScopeColumn
	if scopeColumn == "" {
		scopeColumn = "customer_id"
	}

	return &Adapter{
		loader:      cfg.Loader,
		resolver:    resolver,
		builder:     cfg.Builder,
		logger:      logger,
		resource:    cfg.Resource,
		codes:       clonePermissionMap(cfg.PermissionMap),
		scopeColumn: scopeColumn,
	}, nil
}

// Enforce resolves the actor, checks the mapped permission code, and builds
// the tenant predicate for the operation.
func (a *Adapter) Enforce(in GuardInput) (GuardResult, error) {
	if in.Context == nil {
		return GuardResult{}, goerrors.New("go-access: crudguard requires a context", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithTextCode(textCodeMissingContext)
	}

	ctx := in.Context.UserContext()
	user, err := authctx.ResolveUser(ctx, a.loader)
	if err != nil {
		return GuardResult{}, err
	}

	if in.Bypass != nil && in.Bypass.Enabled {
		a.logger.Info("crudguard: bypassing guard enforcement",
			"operation", string(in.Operation), "reason", in.Bypass.Reason)
		return GuardResult{
			User:         user,
			Predicate:    scope.Unrestricted(),
			Operation:    in.Operation,
			Bypassed:     true,
			BypassReason: in.Bypass.Reason,
		}, nil
	}

	code, err := a.codeForOperation(in.Operation)
	if err != nil {
		return GuardResult{}, err
	}
	if !a.resolver.HasPermission(*user, code) {
		return GuardResult{}, goerrors.New(
			fmt.Sprintf("go-access: permission %s denied for %s", code, user.Role),
			goerrors.CategoryAuthz).
			WithCode(goerrors.CodeForbidden).
			WithTextCode(textCodePermissionDenied)
	}

	var opts []scope.BuildOption
	if !in.Impersonation.IsZero() {
		opts = append(opts, scope.WithImpersonation(in.Impersonation))
	}
	predicate, err := a.builder.BuildScope(ctx, *user, a.resource, opts...)
	if err != nil {
		return GuardResult{}, goerrors.Wrap(err, goerrors.CategoryInternal,
			fmt.Sprintf("go-access: scope build failed for resource %s", a.resource)).
			WithCode(goerrors.CodeInternal).
			WithTextCode(textCodeScopeFailed)
	}

	return GuardResult{
		User:      user,
		Predicate: predicate,
		Operation: in.Operation,
	}, nil
}

// ScopeCriteria narrows a select statement to the result's predicate, using
// the adapter's configured tenancy column.
func (a *Adapter) ScopeCriteria(result GuardResult) func(*bun.SelectQuery) *bun.SelectQuery {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return result.Predicate.ApplyTo(q, a.scopeColumn)
	}
}

// AllowsRow reports whether the guarded predicate admits an individual row,
// for write paths that validate the target before mutating.
func (a *Adapter) AllowsRow(result GuardResult, customerID uuid.UUID) bool {
	return result.Predicate.Allows(scope.RowScope{CustomerID: customerID})
}

func (a *Adapter) codeForOperation(op crud.CrudOperation) (string, error) {
	if code, ok := a.codes[op]; ok && code != "" {
		return code, nil
	}
	return "", goerrors.New(fmt.Sprintf("go-access: no permission code configured for %s", op), goerrors.CategoryInternal).
		WithCode(goerrors.CodeInternal).
		WithTextCode(textCodeMissingPermission)
}
