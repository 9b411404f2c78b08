package command

import (
	"context"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/pkg/types"
)

const (
	featureUserOverrides = "access.user_overrides"
	featureImpersonation = "access.impersonation"
)

func featureEnabled(ctx context.Context, gate featuregate.FeatureGate, key string, anchor types.TenantAnchor, userID uuid.UUID) (bool, error) {
	if gate == nil {
		return true, nil
	}
	scopeSet := featureScopeSet(anchor, userID)
	if scopeSet == nil {
		return gate.Enabled(ctx, key)
	}
	return gate.Enabled(ctx, key, featuregate.WithScopeSet(*scopeSet))
}

func featureScopeSet(anchor types.TenantAnchor, userID uuid.UUID) *featuregate.ScopeSet {
	tenantID := ""
	orgID := ""
	if anchor.CustomerID != uuid.Nil {
		tenantID = anchor.CustomerID.String()
	}
	if anchor.OrganizationID != uuid.Nil {
		orgID = anchor.OrganizationID.String()
	}

	user := ""
	if userID != uuid.Nil {
		user = userID.String()
	}

	if tenantID == "" && orgID == "" && user == "" {
		return nil
	}
	return &featuregate.ScopeSet{
		System:   true,
		TenantID: tenantID,
		OrgID:    orgID,
		UserID:   user,
	}
}
