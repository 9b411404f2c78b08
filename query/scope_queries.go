package query

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/pkg/types"
	"github.com/stackwise/go-access/scope"
)

const featureImpersonation = "access.impersonation"

// ErrImpersonationDisabled indicates impersonation is disabled via feature
// gate.
var ErrImpersonationDisabled = errors.New("go-access: impersonation disabled")

// VisibleCustomersInput materializes the tenant predicate for a user against
// one resource. Impersonation narrows a platform admin into a specific
// tenant's view and sits behind a feature gate.
type VisibleCustomersInput struct {
	UserID        uuid.UUID
	Resource      scope.Resource
	Impersonation scope.Impersonation
}

// Type implements gocommand.Message.
func (VisibleCustomersInput) Type() string {
	return "query.customers.visible"
}

// Validate implements gocommand.Message.
func (input VisibleCustomersInput) Validate() error {
	if input.UserID == uuid.Nil {
		return types.ErrUserIDRequired
	}
	return nil
}

// VisibleCustomers is the materialized predicate: either unrestricted or an
// explicit customer ID set.
type VisibleCustomers struct {
	Unrestricted bool
	CustomerIDs  []uuid.UUID
}

// VisibleCustomersQuery loads the user and runs the scope builder.
type VisibleCustomersQuery struct {
	loader  types.UserLoader
	builder *scope.Builder
	gate    featuregate.FeatureGate
}

// NewVisibleCustomersQuery constructs the query. A nil gate leaves
// impersonation enabled.
func NewVisibleCustomersQuery(loader types.UserLoader, builder *scope.Builder, gate featuregate.FeatureGate) *VisibleCustomersQuery {
	return &VisibleCustomersQuery{loader: loader, builder: builder, gate: gate}
}

var _ gocommand.Querier[VisibleCustomersInput, VisibleCustomers] = (*VisibleCustomersQuery)(nil)

// Query builds the predicate and flattens it for API consumption.
func (q *VisibleCustomersQuery) Query(ctx context.Context, input VisibleCustomersInput) (VisibleCustomers, error) {
	if q.loader == nil {
		return VisibleCustomers{}, types.ErrMissingUserLoader
	}
	if q.builder == nil {
		return VisibleCustomers{}, types.ErrServiceNotReady
	}
	if err := input.Validate(); err != nil {
		return VisibleCustomers{}, err
	}

	var opts []scope.BuildOption
	if input.Impersonation.OrganizationID != uuid.Nil || input.Impersonation.CustomerID != uuid.Nil {
		enabled, err := impersonationEnabled(ctx, q.gate, input.UserID)
		if err != nil {
			return VisibleCustomers{}, err
		}
		if !enabled {
			return VisibleCustomers{}, ErrImpersonationDisabled
		}
		opts = append(opts, scope.WithImpersonation(input.Impersonation))
	}

	user, err := q.loader.LoadUser(ctx, input.UserID)
	if err != nil {
		return VisibleCustomers{}, err
	}
	predicate, err := q.builder.BuildScope(ctx, *user, input.Resource, opts...)
	if err != nil {
		return VisibleCustomers{}, err
	}
	if predicate.IsUnrestricted() {
		return VisibleCustomers{Unrestricted: true}, nil
	}
	return VisibleCustomers{CustomerIDs: predicate.CustomerIDs()}, nil
}

func impersonationEnabled(ctx context.Context, gate featuregate.FeatureGate, userID uuid.UUID) (bool, error) {
	if gate == nil {
		return true, nil
	}
	if userID == uuid.Nil {
		return gate.Enabled(ctx, featureImpersonation)
	}
	return gate.Enabled(ctx, featureImpersonation, featuregate.WithScopeSet(featuregate.ScopeSet{
		System: true,
		UserID: userID.String(),
	}))
}
