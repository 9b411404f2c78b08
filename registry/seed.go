package registry

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/stackwise/go-access/pkg/types"
	"github.com/uptrace/bun"
)

// templateSeed mirrors the catalogue shipped at deployment. Tenants never
// author templates; they reference these and layer overrides on top.
type templateSeed struct {
	code        string
	name        string
	description string
	category    types.RoleCategory
	permissions []string
}

var templateSeeds = []templateSeed{
	{
		code:        "org_admin",
		name:        "Organization Administrator",
		description: "Customer management, staff management, full data access",
		category:    types.RoleCategoryOrganization,
		permissions: []string{
			"customer.*", "user.*", "measurement.*", "report.*",
			"stack.*", "item.*", "limit.*", "assignment.*",
			"connection.*", "organization.*", "contract.*",
		},
	},
	{
		code:        "org_operator",
		name:        "Organization Field Operator",
		description: "Measurement entry and updates for assigned customers",
		category:    types.RoleCategoryOrganization,
		permissions: []string{
			"customer.read", "measurement.create", "measurement.update",
			"measurement.read", "stack.read", "item.read", "limit.read",
			"report.read",
		},
	},
	{
		code:        "org_viewer",
		name:        "Organization Read-Only",
		description: "Read-only access for sales and support staff",
		category:    types.RoleCategoryOrganization,
		permissions: []string{
			"customer.read", "measurement.read", "report.read", "stack.read",
		},
	},
	{
		code:        "customer_admin",
		name:        "Customer Site Administrator",
		description: "Site data access plus user and connection management",
		category:    types.RoleCategoryCustomer,
		permissions: []string{
			"measurement.read", "report.read", "stack.read", "stack.update",
			"user.create", "user.read", "user.update", "connection.approve",
			"measurement.comment", "alert.manage",
		},
	},
	{
		code:        "customer_user",
		name:        "Customer Site User",
		description: "Read-only site data access",
		category:    types.RoleCategoryCustomer,
		permissions: []string{
			"measurement.read", "report.read", "stack.read",
		},
	},
	{
		code:        "customer_group_admin",
		name:        "Customer Group Administrator",
		description: "Consolidated read access across the group's sites",
		category:    types.RoleCategoryCustomer,
		permissions: []string{
			"measurement.read", "report.read", "stack.read",
			"user.create", "user.read", "user.update",
			"group.read", "group.update", "connection.approve",
		},
	},
}

// SeedTemplates upserts the shipped role templates. Safe to run on every
// deployment; existing templates are refreshed in place by code.
func (s *RoleStore) SeedTemplates(ctx context.Context) error {
	now := s.clock.Now()
	for _, seed := range templateSeeds {
		if _, err := s.permissions.ValidatePatterns(seed.permissions); err != nil {
			return err
		}
		existing, _, err := s.templates.List(ctx, codeCriteria(seed.code))
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			record := existing[0]
			record.Name = seed.name
			record.Description = seed.description
			record.Category = string(seed.category)
			record.DefaultPermissions = append([]string{}, seed.permissions...)
			record.UpdatedAt = now
			if _, err := s.templates.Update(ctx, record); err != nil {
				return err
			}
			continue
		}
		record := &RoleTemplate{
			ID:                 s.idGen.UUID(),
			Code:               seed.code,
			Name:               seed.name,
			Description:        seed.description,
			Category:           string(seed.category),
			DefaultPermissions: append([]string{}, seed.permissions...),
			IsSystem:           true,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if _, err := s.templates.Create(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func codeCriteria(code string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("code = ?", code)
	}
}
