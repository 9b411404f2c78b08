package tenancy

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Customer is a monitored party: a company whose measurement data lives in
// the platform. Customers created by an organization's staff are visible to
// that organization without any connection link.
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID        uuid.UUID `bun:"id,pk,notnull" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	CreatedBy uuid.UUID `bun:"created_by,notnull" json:"created_by"`
	IsPublic  bool      `bun:"is_public" json:"is_public"`
	// MergedIntoID points at the surviving customer after a merge. Merged
	// customers drop out of every visibility set.
	MergedIntoID uuid.UUID `bun:"merged_into_id,nullzero" json:"merged_into_id,omitempty"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// CustomerOrganization is a connection link between a customer and an
// organization that did not create it. Only APPROVED rows grant visibility.
type CustomerOrganization struct {
	bun.BaseModel `bun:"table:customer_organizations,alias:co"`

	CustomerID     uuid.UUID `bun:"customer_id,pk,notnull" json:"customer_id"`
	OrganizationID uuid.UUID `bun:"organization_id,pk,notnull" json:"organization_id"`
	Status         string    `bun:"status,notnull" json:"status"`
	RequestedBy    uuid.UUID `bun:"requested_by,notnull" json:"requested_by"`
	DecidedBy      uuid.UUID `bun:"decided_by,nullzero" json:"decided_by,omitempty"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// orgUserRef is a narrow projection of the host application's users table,
// just enough to resolve which organization a customer's creator belongs to.
type orgUserRef struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             uuid.UUID `bun:"id,pk,notnull"`
	OrganizationID uuid.UUID `bun:"organization_id,nullzero"`
}
