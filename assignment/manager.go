// Package assignment maintains the staff-to-customer assignment relation the
// scope builder consults when a user's access scope is ASSIGNED. The replace
// path is a single transaction so concurrent readers observe either the old
// portfolio or the new one, never a partially replaced mix.
package assignment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/pkg/types"
	"github.com/uptrace/bun"
)

var (
	// ErrPrimaryNotInSet indicates the primary customer is not part of the
	// assigned set.
	ErrPrimaryNotInSet = errors.New("go-access: primary customer must be part of the assigned set")
	// ErrDuplicateCustomer indicates the requested set lists a customer twice.
	ErrDuplicateCustomer = errors.New("go-access: assignment set contains duplicate customer ids")
)

// ManagerConfig configures the Bun-backed assignment manager.
type ManagerConfig struct {
	DB          *bun.DB
	Assignments repository.Repository[*CustomerAssignment]
	Clock       types.Clock
	Hooks       types.Hooks
	Logger      types.Logger
}

// Manager persists customer assignments using a bun transaction for the
// replace path and a go-repository-bun repository for reads.
type Manager struct {
	db          *bun.DB
	assignments repository.Repository[*CustomerAssignment]
	clock       types.Clock
	hooks       types.Hooks
	logger      types.Logger
}

var _ types.AssignmentStore = (*Manager)(nil)

// NewManager constructs the default manager. DB is required for the
// transactional replace; the read repository is created from it when not
// supplied.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.DB == nil {
		return nil, errors.New("assignment manager: db required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	assignments := cfg.Assignments
	if assignments == nil {
		assignments = repository.NewRepository(cfg.DB, repository.ModelHandlers[*CustomerAssignment]{
			NewRecord: func() *CustomerAssignment { return &CustomerAssignment{} },
			GetID: func(*CustomerAssignment) uuid.UUID {
				return uuid.Nil
			},
			SetID: func(*CustomerAssignment, uuid.UUID) {},
		})
	}
	return &Manager{
		db:          cfg.DB,
		assignments: assignments,
		clock:       clock,
		hooks:       cfg.Hooks,
		logger:      logger,
	}, nil
}

// SetAssignments replaces the user's full assignment set in one atomic
// operation. The primary customer, when given, must be a member of the set;
// at most one row ends up marked primary because the flag derives from that
// single ID.
func (m *Manager) SetAssignments(ctx context.Context, actor types.ActorRef, userID uuid.UUID, customerIDs []uuid.UUID, primaryCustomerID uuid.UUID) error {
	if actor.ID == uuid.Nil {
		return types.ErrActorRequired
	}
	if userID == uuid.Nil {
		return types.ErrUserIDRequired
	}
	rows, err := m.buildRows(actor, userID, customerIDs, primaryCustomerID)
	if err != nil {
		return err
	}

	err = m.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*CustomerAssignment)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("assignment replace for user %s: %w", userID, err)
	}

	m.emit(ctx, types.RoleEvent{
		UserID:     userID,
		Action:     "assignments.replaced",
		ActorID:    actor.ID,
		OccurredAt: m.clock.Now(),
	})
	return nil
}

// AssignedCustomerIDs returns the customer IDs the user is assigned to. The
// scope builder calls this at query time; results are never cached here.
func (m *Manager) AssignedCustomerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	assignments, err := m.ListAssignments(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(assignments))
	for _, assignment := range assignments {
		out = append(out, assignment.CustomerID)
	}
	return out, nil
}

// ListAssignments returns the user's assignment rows, primary first.
func (m *Manager) ListAssignments(ctx context.Context, userID uuid.UUID) ([]types.CustomerAssignment, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	records, _, err := m.assignments.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).
			OrderExpr("is_primary DESC, assigned_at ASC")
	})
	if err != nil {
		return nil, err
	}
	out := make([]types.CustomerAssignment, 0, len(records))
	for _, record := range records {
		out = append(out, types.CustomerAssignment{
			UserID:     record.UserID,
			CustomerID: record.CustomerID,
			IsPrimary:  record.IsPrimary,
			AssignedBy: record.AssignedBy,
			AssignedAt: record.AssignedAt,
		})
	}
	return out, nil
}

func (m *Manager) buildRows(actor types.ActorRef, userID uuid.UUID, customerIDs []uuid.UUID, primaryCustomerID uuid.UUID) ([]CustomerAssignment, error) {
	now := m.clock.Now()
	seen := make(map[uuid.UUID]struct{}, len(customerIDs))
	rows := make([]CustomerAssignment, 0, len(customerIDs))
	primaryFound := false
	for _, customerID := range customerIDs {
		if customerID == uuid.Nil {
			return nil, validationError("assignment set contains a nil customer id")
		}
		if _, ok := seen[customerID]; ok {
			return nil, goerrors.Wrap(ErrDuplicateCustomer, goerrors.CategoryValidation, "go-access: invalid assignment set").
				WithCode(goerrors.CodeBadRequest)
		}
		seen[customerID] = struct{}{}
		isPrimary := customerID == primaryCustomerID
		primaryFound = primaryFound || isPrimary
		rows = append(rows, CustomerAssignment{
			UserID:     userID,
			CustomerID: customerID,
			IsPrimary:  isPrimary,
			AssignedAt: now,
			AssignedBy: actor.ID,
		})
	}
	if primaryCustomerID != uuid.Nil && !primaryFound {
		return nil, goerrors.Wrap(ErrPrimaryNotInSet, goerrors.CategoryValidation, "go-access: invalid assignment set").
			WithCode(goerrors.CodeBadRequest)
	}
	return rows, nil
}

func (m *Manager) emit(ctx context.Context, event types.RoleEvent) {
	if m.hooks.AfterAssignmentChange == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error("assignment hook panic", errors.New("panic in AfterAssignmentChange"), "panic", rec)
		}
	}()
	m.hooks.AfterAssignmentChange(ctx, event)
}

func validationError(msg string) error {
	return goerrors.New("go-access: "+msg, goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest)
}
