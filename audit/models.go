package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stackwise/go-access/pkg/types"
	"github.com/uptrace/bun"
)

// Record is one entry in the authorization audit trail: who changed which
// role, override, assignment, or connection, and for whom.
type Record struct {
	ID             uuid.UUID
	ActorID        uuid.UUID
	SubjectUserID  uuid.UUID
	RoleID         uuid.UUID
	OrganizationID uuid.UUID
	CustomerID     uuid.UUID
	Verb           string
	Data           map[string]any
	CreatedAt      time.Time
}

// Sink receives audit records. Write failures must not abort the mutation
// that produced the record; callers log and continue.
type Sink interface {
	Log(ctx context.Context, record Record) error
}

// Filter narrows audit feed queries.
type Filter struct {
	ActorID       uuid.UUID
	SubjectUserID uuid.UUID
	Verb          string
	Anchor        types.TenantAnchor
	Since         time.Time
	Pagination    types.Pagination
}

// Page is a paginated slice of the audit feed, newest first.
type Page struct {
	Records    []Record
	Total      int
	NextOffset int
	HasMore    bool
}

// LogEntry models the persisted row in access_audit.
type LogEntry struct {
	bun.BaseModel `bun:"table:access_audit"`

	ID             uuid.UUID      `bun:",pk,type:uuid"`
	ActorID        uuid.UUID      `bun:"actor_id,type:uuid"`
	SubjectUserID  uuid.UUID      `bun:"subject_user_id,type:uuid"`
	RoleID         uuid.UUID      `bun:"role_id,type:uuid"`
	OrganizationID uuid.UUID      `bun:"organization_id,type:uuid"`
	CustomerID     uuid.UUID      `bun:"customer_id,type:uuid"`
	Verb           string         `bun:"verb"`
	Data           map[string]any `bun:"data,type:jsonb"`
	CreatedAt      time.Time      `bun:"created_at"`
}

func toLogEntry(record Record) *LogEntry {
	return &LogEntry{
		ID:             record.ID,
		ActorID:        record.ActorID,
		SubjectUserID:  record.SubjectUserID,
		RoleID:         record.RoleID,
		OrganizationID: record.OrganizationID,
		CustomerID:     record.CustomerID,
		Verb:           record.Verb,
		Data:           record.Data,
		CreatedAt:      record.CreatedAt,
	}
}

func toRecord(entry *LogEntry) Record {
	if entry == nil {
		return Record{}
	}
	return Record{
		ID:             entry.ID,
		ActorID:        entry.ActorID,
		SubjectUserID:  entry.SubjectUserID,
		RoleID:         entry.RoleID,
		OrganizationID: entry.OrganizationID,
		CustomerID:     entry.CustomerID,
		Verb:           entry.Verb,
		Data:           entry.Data,
		CreatedAt:      entry.CreatedAt,
	}
}
