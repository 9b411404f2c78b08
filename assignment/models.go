package assignment

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CustomerAssignment represents rows from customer_assignments. Assignments
// exist only for organization-side staff; the composite key keeps one row per
// user/customer pair.
type CustomerAssignment struct {
	bun.BaseModel `bun:"table:customer_assignments"`

	UserID     uuid.UUID `bun:"user_id,type:uuid,pk"`
	CustomerID uuid.UUID `bun:"customer_id,type:uuid,pk"`
	IsPrimary  bool      `bun:"is_primary,notnull"`
	AssignedAt time.Time `bun:"assigned_at,notnull"`
	AssignedBy uuid.UUID `bun:"assigned_by,type:uuid,notnull"`
}
