package registry

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RoleTemplate represents the schema stored in role_templates. Templates are
// seeded at deployment and never created by tenants.
type RoleTemplate struct {
	bun.BaseModel `bun:"table:role_templates"`

	ID                 uuid.UUID `bun:",pk,type:uuid"`
	Code               string    `bun:"code,notnull,unique"`
	Name               string    `bun:"name,notnull"`
	Description        string    `bun:"description"`
	Category           string    `bun:"category,notnull"`
	DefaultPermissions []string  `bun:"default_permissions,type:jsonb"`
	IsSystem           bool      `bun:"is_system,notnull"`
	CreatedAt          time.Time `bun:"created_at,notnull"`
	UpdatedAt          time.Time `bun:"updated_at,notnull"`
}

// CustomRole represents the schema stored in custom_roles. The tenant anchor
// is organization_id XOR customer_id; overrides live in their own table so
// list order survives the round trip.
type CustomRole struct {
	bun.BaseModel `bun:"table:custom_roles"`

	ID             uuid.UUID `bun:",pk,type:uuid"`
	Name           string    `bun:"name,notnull"`
	Description    string    `bun:"description"`
	OrganizationID uuid.UUID `bun:"organization_id,type:uuid,notnull,default:'00000000-0000-0000-0000-000000000000'"`
	CustomerID     uuid.UUID `bun:"customer_id,type:uuid,notnull,default:'00000000-0000-0000-0000-000000000000'"`
	TemplateID     uuid.UUID `bun:"template_id,type:uuid,notnull,default:'00000000-0000-0000-0000-000000000000'"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
	CreatedBy      uuid.UUID `bun:"created_by,type:uuid,notnull"`
	UpdatedBy      uuid.UUID `bun:"updated_by,type:uuid,notnull"`
}

// RolePermissionOverride represents rows from role_permission_overrides.
// Position preserves the order overrides were authored in; resolution applies
// them in that order.
type RolePermissionOverride struct {
	bun.BaseModel `bun:"table:role_permission_overrides"`

	RoleID   uuid.UUID `bun:"role_id,type:uuid,pk"`
	Position int       `bun:"position,pk"`
	Pattern  string    `bun:"pattern,notnull"`
	Granted  bool      `bun:"granted,notnull"`
}

// UserPermissionOverride represents rows from user_permission_overrides, the
// audited user-level exceptions with final say during resolution.
type UserPermissionOverride struct {
	bun.BaseModel `bun:"table:user_permission_overrides"`

	UserID    uuid.UUID `bun:"user_id,type:uuid,pk"`
	Position  int       `bun:"position,pk"`
	Pattern   string    `bun:"pattern,notnull"`
	Granted   bool      `bun:"granted,notnull"`
	GrantedBy uuid.UUID `bun:"granted_by,type:uuid,notnull"`
	Reason    string    `bun:"reason"`
	GrantedAt time.Time `bun:"granted_at,notnull"`
}

// roleUserRef is a narrow projection of the host application's users table,
// used only to refuse deleting a custom role that users still reference.
type roleUserRef struct {
	bun.BaseModel `bun:"table:users"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	CustomRoleID uuid.UUID `bun:"custom_role_id,type:uuid"`
}
