package scope

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/pkg/types"
)

// Resource names a multi-tenant table family the builder knows how to scope.
// Calling the builder with anything else is a configuration error, never an
// unrestricted default.
type Resource string

const (
	ResourceCustomers      Resource = "customers"
	ResourceStacks         Resource = "stacks"
	ResourceMeasurements   Resource = "measurements"
	ResourceReports        Resource = "reports"
	ResourceCommunications Resource = "communications"
	ResourceContracts      Resource = "contracts"
)

// Impersonation is a server-validated, request-scoped acting-as target. The
// route layer constructs it from an explicit, authorized parameter on every
// request; the builder honors it only for SUPER_ADMIN callers.
type Impersonation struct {
	OrganizationID uuid.UUID
	CustomerID     uuid.UUID
}

// IsZero reports whether no impersonation target was supplied.
func (i Impersonation) IsZero() bool {
	return i.OrganizationID == uuid.Nil && i.CustomerID == uuid.Nil
}

// BuildOption customizes a single BuildScope call.
type BuildOption func(*buildOptions)

type buildOptions struct {
	impersonation Impersonation
}

// WithImpersonation narrows a SUPER_ADMIN caller to the supplied tenant for
// this request only.
func WithImpersonation(target Impersonation) BuildOption {
	return func(opts *buildOptions) {
		opts.impersonation = target
	}
}

// Builder produces tenant predicates from the loaded user and the link /
// assignment stores. It holds no per-user cache: access scope and assignment
// rows are read at query time so admin toggles take effect immediately.
type Builder struct {
	links       types.LinkStore
	assignments types.AssignmentStore
	resources   map[Resource]struct{}
	logger      types.Logger
}

// BuilderConfig wires the builder's collaborators. Resources defaults to the
// platform's multi-tenant tables; hosts registering extra tables list them
// explicitly.
type BuilderConfig struct {
	LinkStore       types.LinkStore
	AssignmentStore types.AssignmentStore
	Resources       []Resource
	Logger          types.Logger
}

// NewBuilder validates the configuration and constructs a Builder.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if cfg.LinkStore == nil {
		return nil, types.ErrMissingLinkStore
	}
	if cfg.AssignmentStore == nil {
		return nil, types.ErrMissingAssignmentStore
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	resources := cfg.Resources
	if len(resources) == 0 {
		resources = []Resource{
			ResourceCustomers, ResourceStacks, ResourceMeasurements,
			ResourceReports, ResourceCommunications, ResourceContracts,
		}
	}
	known := make(map[Resource]struct{}, len(resources))
	for _, resource := range resources {
		known[resource] = struct{}{}
	}
	return &Builder{
		links:       cfg.LinkStore,
		assignments: cfg.AssignmentStore,
		resources:   known,
		logger:      logger,
	}, nil
}

// BuildScope resolves the visibility predicate for the user and resource.
//
// Customer-side roles collapse to a single customer equality test regardless
// of any permission grant, custom role, or override the user carries; this is
// the tenant-isolation invariant the rest of the application leans on.
func (b *Builder) BuildScope(ctx context.Context, user types.ResolvedUser, resource Resource, opts ...BuildOption) (Predicate, error) {
	if _, ok := b.resources[resource]; !ok {
		return DenyAll(), unknownResource(resource)
	}
	if err := user.Validate(); err != nil {
		return DenyAll(), err
	}

	var options buildOptions
	for _, opt := range opts {
		opt(&options)
	}

	switch {
	case user.Role == types.SystemRoleSuperAdmin:
		return b.superAdminScope(ctx, options.impersonation)
	case user.Role.IsCustomerSide():
		// Permission state is deliberately not consulted here.
		return CustomerEquals(user.CustomerID), nil
	case user.Role.IsOrganizationSide():
		return b.organizationScope(ctx, user)
	}

	b.logger.Debug("denying scope for unmapped role", "role", string(user.Role))
	return DenyAll(), nil
}

func (b *Builder) superAdminScope(ctx context.Context, target Impersonation) (Predicate, error) {
	switch {
	case target.IsZero():
		return Unrestricted(), nil
	case target.CustomerID != uuid.Nil:
		return CustomerEquals(target.CustomerID), nil
	default:
		visible, err := b.visibleCustomers(ctx, target.OrganizationID)
		if err != nil {
			return DenyAll(), err
		}
		return CustomerIn(visible), nil
	}
}

func (b *Builder) organizationScope(ctx context.Context, user types.ResolvedUser) (Predicate, error) {
	visible, err := b.visibleCustomers(ctx, user.OrganizationID)
	if err != nil {
		return DenyAll(), err
	}
	predicate := CustomerIn(visible)

	if user.AccessScope == types.AccessScopeAssigned {
		assigned, err := b.assignments.AssignedCustomerIDs(ctx, user.ID)
		if err != nil {
			return DenyAll(), err
		}
		predicate = predicate.Intersect(CustomerIn(assigned))
	}
	return predicate, nil
}

// visibleCustomers is the organization visibility rule: customers created by
// the organization's own users plus customers linked with an APPROVED
// connection.
func (b *Builder) visibleCustomers(ctx context.Context, organizationID uuid.UUID) ([]uuid.UUID, error) {
	if organizationID == uuid.Nil {
		return nil, nil
	}
	created, err := b.links.CreatedCustomerIDs(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	approved, err := b.links.ApprovedCustomerIDs(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]struct{}, len(created)+len(approved))
	out := make([]uuid.UUID, 0, len(created)+len(approved))
	for _, id := range append(created, approved...) {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func unknownResource(resource Resource) error {
	return goerrors.New(fmt.Sprintf("go-access: no scope rule registered for resource %q", resource), goerrors.CategoryInternal).
		WithCode(goerrors.CodeInternal).
		WithTextCode("SCOPE_RESOURCE_UNKNOWN")
}
