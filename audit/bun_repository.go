// Package audit persists the trail of role, override, assignment, and
// connection mutations. Payloads run through a go-masker denylist before they
// hit the database; audit write failures never abort the mutation itself.
package audit

import (
	"context"
	"errors"

	"github.com/goliatone/go-masker"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/pkg/types"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the Bun-backed audit repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*LogEntry]
	Masker     *masker.Masker
	Clock      types.Clock
	IDGen      types.IDGenerator
}

type auditStore interface {
	repository.Repository[*LogEntry]
}

// Repository persists audit records and exposes the feed query.
type Repository struct {
	auditStore
	mask  *masker.Masker
	clock types.Clock
	idGen types.IDGenerator
}

var (
	_ repository.Repository[*LogEntry] = (*Repository)(nil)
	_ Sink                             = (*Repository)(nil)
)

// NewRepository constructs a repository that implements Sink.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("audit: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*LogEntry]{
			NewRecord: func() *LogEntry { return &LogEntry{} },
			GetID: func(entry *LogEntry) uuid.UUID {
				if entry == nil {
					return uuid.Nil
				}
				return entry.ID
			},
			SetID: func(entry *LogEntry, id uuid.UUID) {
				if entry != nil {
					entry.ID = id
				}
			},
		})
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	mask := cfg.Masker
	if mask == nil {
		mask = DefaultMasker()
	}

	return &Repository{
		auditStore: repo,
		mask:       mask,
		clock:      clock,
		idGen:      idGen,
	}, nil
}

// Log sanitizes and persists one audit record.
func (r *Repository) Log(ctx context.Context, record Record) error {
	record = SanitizeRecord(r.mask, record)
	entry := toLogEntry(record)
	if entry.ID == uuid.Nil {
		entry.ID = r.idGen.UUID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.clock.Now()
	}
	_, err := r.Create(ctx, entry)
	return err
}

// ListRecords returns a paginated audit feed, newest first.
func (r *Repository) ListRecords(ctx context.Context, filter Filter) (Page, error) {
	pagination := normalizePagination(filter.Pagination, 50, 200)
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.OrderExpr("created_at DESC").
				Limit(pagination.Limit).
				Offset(pagination.Offset)
			return applyFilter(q, filter)
		},
	}

	rows, total, err := r.List(ctx, criteria...)
	if err != nil {
		return Page{}, err
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, toRecord(row))
	}
	return Page{
		Records:    records,
		Total:      total,
		NextOffset: pagination.Offset + pagination.Limit,
		HasMore:    pagination.Offset+pagination.Limit < total,
	}, nil
}

func applyFilter(q *bun.SelectQuery, filter Filter) *bun.SelectQuery {
	if filter.ActorID != uuid.Nil {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.SubjectUserID != uuid.Nil {
		q = q.Where("subject_user_id = ?", filter.SubjectUserID)
	}
	if filter.Verb != "" {
		q = q.Where("verb = ?", filter.Verb)
	}
	if filter.Anchor.OrganizationID != uuid.Nil {
		q = q.Where("organization_id = ?", filter.Anchor.OrganizationID)
	}
	if filter.Anchor.CustomerID != uuid.Nil {
		q = q.Where("customer_id = ?", filter.Anchor.CustomerID)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}
	return q
}

func normalizePagination(p types.Pagination, def, max int) types.Pagination {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// FromRoleEvent converts a mutation hook event into an audit record. Service
// wiring uses this to bridge store hooks to the sink.
func FromRoleEvent(event types.RoleEvent, data map[string]any) Record {
	return Record{
		ActorID:        event.ActorID,
		SubjectUserID:  event.UserID,
		RoleID:         event.RoleID,
		OrganizationID: event.Anchor.OrganizationID,
		CustomerID:     event.Anchor.CustomerID,
		Verb:           event.Action,
		Data:           data,
		CreatedAt:      event.OccurredAt,
	}
}
