package types

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SystemRole is the fixed platform role assigned to every user at onboarding.
// Organization-side roles belong to measurement organizations; customer-side
// roles belong to customer sites (or site groups).
type SystemRole string

const (
	SystemRoleSuperAdmin SystemRole = "SUPER_ADMIN"
	SystemRoleOrgAdmin   SystemRole = "ORG_ADMIN"
	SystemRoleOperator   SystemRole = "OPERATOR"

	SystemRoleCustomerAdmin SystemRole = "CUSTOMER_ADMIN"
	SystemRoleCustomerUser  SystemRole = "CUSTOMER_USER"
	// Site/group variants carry the same base grants as their admin/user
	// counterparts but anchor to a single site or a site group.
	SystemRoleCustomerSiteAdmin  SystemRole = "CUSTOMER_SITE_ADMIN"
	SystemRoleCustomerSiteUser   SystemRole = "CUSTOMER_SITE_USER"
	SystemRoleCustomerGroupAdmin SystemRole = "CUSTOMER_GROUP_ADMIN"
	SystemRoleCustomerGroupUser  SystemRole = "CUSTOMER_GROUP_USER"
)

// ParseSystemRole normalizes a stored role value. Unknown values are returned
// as-is so the permission registry can fail closed on them instead of the
// parser guessing.
func ParseSystemRole(value string) SystemRole {
	return SystemRole(strings.ToUpper(strings.TrimSpace(value)))
}

// Valid reports whether the role is one of the platform roles.
func (r SystemRole) Valid() bool {
	switch r {
	case SystemRoleSuperAdmin, SystemRoleOrgAdmin, SystemRoleOperator,
		SystemRoleCustomerAdmin, SystemRoleCustomerUser,
		SystemRoleCustomerSiteAdmin, SystemRoleCustomerSiteUser,
		SystemRoleCustomerGroupAdmin, SystemRoleCustomerGroupUser:
		return true
	}
	return false
}

// IsCustomerSide reports whether the role anchors to a customer site.
func (r SystemRole) IsCustomerSide() bool {
	switch r {
	case SystemRoleCustomerAdmin, SystemRoleCustomerUser,
		SystemRoleCustomerSiteAdmin, SystemRoleCustomerSiteUser,
		SystemRoleCustomerGroupAdmin, SystemRoleCustomerGroupUser:
		return true
	}
	return false
}

// IsOrganizationSide reports whether the role anchors to a measurement
// organization.
func (r SystemRole) IsOrganizationSide() bool {
	return r == SystemRoleOrgAdmin || r == SystemRoleOperator
}

// AccessScope narrows organization staff visibility. ALL sees every customer
// the organization can see; ASSIGNED sees only personally assigned customers.
type AccessScope string

const (
	AccessScopeAll      AccessScope = "ALL"
	AccessScopeAssigned AccessScope = "ASSIGNED"
)

// RoleCategory partitions role templates and custom roles by tenant side.
type RoleCategory string

const (
	RoleCategoryOrganization RoleCategory = "ORGANIZATION"
	RoleCategoryCustomer     RoleCategory = "CUSTOMER"
)

// LinkStatus tracks the lifecycle of a customer-organization connection.
// Only APPROVED links grant the organization visibility into the customer.
type LinkStatus string

const (
	LinkStatusPending      LinkStatus = "PENDING"
	LinkStatusApproved     LinkStatus = "APPROVED"
	LinkStatusRejected     LinkStatus = "REJECTED"
	LinkStatusDisconnected LinkStatus = "DISCONNECTED"
)

// RoleTemplate is an immutable catalogue entry seeded at deployment. Custom
// roles may reference a template of the same category as their owning tenant.
type RoleTemplate struct {
	ID                 uuid.UUID
	Code               string
	Name               string
	Description        string
	Category           RoleCategory
	DefaultPermissions []string
	IsSystem           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PermissionOverride adjusts a single pattern on top of a template. Overrides
// apply in list order; Granted=false removes the exact pattern.
type PermissionOverride struct {
	Pattern string
	Granted bool
}

// CustomRole is a tenant-owned role: an optional template reference plus an
// ordered list of pattern overrides. Anchored to exactly one tenant side.
type CustomRole struct {
	ID             uuid.UUID
	Name           string
	Description    string
	OrganizationID uuid.UUID
	CustomerID     uuid.UUID
	TemplateID     uuid.UUID
	Template       *RoleTemplate
	Overrides      []PermissionOverride
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CreatedBy      uuid.UUID
	UpdatedBy      uuid.UUID
}

// Category derives the tenant side from the role's anchor.
func (r CustomRole) Category() RoleCategory {
	if r.CustomerID != uuid.Nil {
		return RoleCategoryCustomer
	}
	return RoleCategoryOrganization
}

// UserPermissionOverride is an audited user-level exception. It has final say
// during resolution, above role-level overrides and template defaults.
type UserPermissionOverride struct {
	UserID    uuid.UUID
	Pattern   string
	Granted   bool
	GrantedBy uuid.UUID
	Reason    string
	GrantedAt time.Time
}

// CustomerAssignment links an organization staff member to a customer they
// are personally responsible for. At most one assignment per user is primary.
type CustomerAssignment struct {
	UserID     uuid.UUID
	CustomerID uuid.UUID
	IsPrimary  bool
	AssignedBy uuid.UUID
	AssignedAt time.Time
}

// ResolvedUser is the fully loaded identity handed to the engine by the host
// application's user loader. The custom role arrives with its template and
// role-level overrides already joined; the engine performs no lazy loading.
type ResolvedUser struct {
	ID             uuid.UUID
	Role           SystemRole
	OrganizationID uuid.UUID
	CustomerID     uuid.UUID
	AccessScope    AccessScope
	CustomRole     *CustomRole
	Overrides      []UserPermissionOverride
}

// Validate enforces the tenant anchor invariant: customer-side roles carry a
// customer ID and never an organization ID, organization-side roles the
// reverse, and SUPER_ADMIN carries neither.
func (u ResolvedUser) Validate() error {
	if u.ID == uuid.Nil {
		return ErrUserIDRequired
	}
	switch {
	case u.Role == SystemRoleSuperAdmin:
		if u.OrganizationID != uuid.Nil || u.CustomerID != uuid.Nil {
			return ErrTenantAnchorInvalid
		}
	case u.Role.IsCustomerSide():
		if u.CustomerID == uuid.Nil || u.OrganizationID != uuid.Nil {
			return ErrTenantAnchorInvalid
		}
	case u.Role.IsOrganizationSide():
		if u.OrganizationID == uuid.Nil || u.CustomerID != uuid.Nil {
			return ErrTenantAnchorInvalid
		}
	}
	return nil
}

// ActorRef identifies who is initiating a mutation, for audit trails and
// admin-only command checks.
type ActorRef struct {
	ID   uuid.UUID
	Role SystemRole
}

// IsAdmin reports whether the actor may manage roles and assignments.
func (a ActorRef) IsAdmin() bool {
	switch a.Role {
	case SystemRoleSuperAdmin, SystemRoleOrgAdmin,
		SystemRoleCustomerAdmin, SystemRoleCustomerSiteAdmin, SystemRoleCustomerGroupAdmin:
		return true
	}
	return false
}

// TenantAnchor carries the tenant identity a custom role or query is scoped
// to. Exactly one side should be set; the zero value means platform scope.
type TenantAnchor struct {
	OrganizationID uuid.UUID
	CustomerID     uuid.UUID
}

// Category reports which tenant side the anchor names.
func (t TenantAnchor) Category() RoleCategory {
	if t.CustomerID != uuid.Nil {
		return RoleCategoryCustomer
	}
	return RoleCategoryOrganization
}

// IsZero reports whether no tenant is anchored.
func (t TenantAnchor) IsZero() bool {
	return t.OrganizationID == uuid.Nil && t.CustomerID == uuid.Nil
}

// Pagination supports list queries across admin panels.
type Pagination struct {
	Limit  int
	Offset int
}

// Clock abstracts time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID creation.
type IDGenerator interface {
	UUID() uuid.UUID
}

// Logger captures basic logging hooks used by the engine.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator produces UUIDv4 identifiers.
type UUIDGenerator struct{}

// UUID returns a randomly generated UUID.
func (UUIDGenerator) UUID() uuid.UUID { return uuid.New() }

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}

var (
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = errors.New("go-access: actor reference required")
	// ErrUserIDRequired indicates a user identifier was omitted.
	ErrUserIDRequired = errors.New("go-access: user id required")
	// ErrUserNotFound indicates the user loader has no record for the actor.
	ErrUserNotFound = errors.New("go-access: user not found")
	// ErrTenantAnchorInvalid indicates a user violates the organization-XOR-customer anchor rule.
	ErrTenantAnchorInvalid = errors.New("go-access: tenant anchor invalid for role")
	// ErrServiceNotReady indicates the service has not been properly configured.
	ErrServiceNotReady = errors.New("go-access: service not ready")
	// ErrMissingRoleStore occurs when no role store was supplied.
	ErrMissingRoleStore = errors.New("go-access: missing role store")
	// ErrMissingAssignmentStore occurs when no assignment store was supplied.
	ErrMissingAssignmentStore = errors.New("go-access: missing assignment store")
	// ErrMissingLinkStore occurs when no link store was supplied.
	ErrMissingLinkStore = errors.New("go-access: missing link store")
	// ErrMissingUserLoader occurs when actor resolution lacks a user loader.
	ErrMissingUserLoader = errors.New("go-access: missing user loader")
	// ErrMissingAuditSink occurs when no audit sink was supplied.
	ErrMissingAuditSink = errors.New("go-access: missing audit sink")
)
