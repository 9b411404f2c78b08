package assignment

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stackwise/go-access/pkg/types"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const assignmentSchemaDDL = `
CREATE TABLE customer_assignments (
    user_id TEXT NOT NULL,
    customer_id TEXT NOT NULL,
    is_primary INTEGER NOT NULL DEFAULT 0,
    assigned_at TIMESTAMP NOT NULL,
    assigned_by TEXT NOT NULL,
    PRIMARY KEY (user_id, customer_id)
);
`

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

func newTestDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open("sqlite3", ":memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})
	_, err = db.Exec(assignmentSchemaDDL)
	require.NoError(t, err)
	return db
}

func newTestManager(t *testing.T, db *bun.DB, hooks types.Hooks) *Manager {
	manager, err := NewManager(ManagerConfig{
		DB:    db,
		Hooks: hooks,
		Clock: fixedClock{t: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	return manager
}

func TestManager_ReplaceAndList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	var events []types.RoleEvent
	manager := newTestManager(t, db, types.Hooks{
		AfterAssignmentChange: func(_ context.Context, evt types.RoleEvent) {
			events = append(events, evt)
		},
	})

	actor := types.ActorRef{ID: uuid.New(), Role: types.SystemRoleOrgAdmin}
	staffID := uuid.New()
	c1, c2, c3 := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, manager.SetAssignments(ctx, actor, staffID, []uuid.UUID{c1, c2}, c2))

	assignments, err := manager.ListAssignments(ctx, staffID)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.Equal(t, c2, assignments[0].CustomerID, "primary sorts first")
	require.True(t, assignments[0].IsPrimary)
	require.False(t, assignments[1].IsPrimary)

	// Full replace: the new portfolio supersedes the old one entirely.
	require.NoError(t, manager.SetAssignments(ctx, actor, staffID, []uuid.UUID{c3}, c3))
	ids, err := manager.AssignedCustomerIDs(ctx, staffID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{c3}, ids)

	require.Len(t, events, 2)
	require.Equal(t, "assignments.replaced", events[0].Action)
}

func TestManager_ReplaceWithEmptySetClears(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	manager := newTestManager(t, db, types.Hooks{})

	actor := types.ActorRef{ID: uuid.New(), Role: types.SystemRoleOrgAdmin}
	staffID := uuid.New()
	require.NoError(t, manager.SetAssignments(ctx, actor, staffID, []uuid.UUID{uuid.New()}, uuid.Nil))
	require.NoError(t, manager.SetAssignments(ctx, actor, staffID, nil, uuid.Nil))

	ids, err := manager.AssignedCustomerIDs(ctx, staffID)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestManager_PrimaryMustBeMember(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	manager := newTestManager(t, db, types.Hooks{})

	actor := types.ActorRef{ID: uuid.New(), Role: types.SystemRoleOrgAdmin}
	staffID := uuid.New()
	c1 := uuid.New()
	require.NoError(t, manager.SetAssignments(ctx, actor, staffID, []uuid.UUID{c1}, c1))

	err := manager.SetAssignments(ctx, actor, staffID, []uuid.UUID{uuid.New()}, uuid.New())
	require.ErrorIs(t, err, ErrPrimaryNotInSet)

	// The failed call left the previous set untouched.
	ids, err := manager.AssignedCustomerIDs(ctx, staffID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{c1}, ids)
}

func TestManager_RejectsDuplicatesAndNilIDs(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	manager := newTestManager(t, db, types.Hooks{})

	actor := types.ActorRef{ID: uuid.New(), Role: types.SystemRoleOrgAdmin}
	staffID := uuid.New()
	c1 := uuid.New()

	err := manager.SetAssignments(ctx, actor, staffID, []uuid.UUID{c1, c1}, c1)
	require.ErrorIs(t, err, ErrDuplicateCustomer)

	err = manager.SetAssignments(ctx, actor, staffID, []uuid.UUID{uuid.Nil}, uuid.Nil)
	require.Error(t, err)

	err = manager.SetAssignments(ctx, types.ActorRef{}, staffID, []uuid.UUID{c1}, c1)
	require.ErrorIs(t, err, types.ErrActorRequired)

	err = manager.SetAssignments(ctx, actor, uuid.Nil, []uuid.UUID{c1}, c1)
	require.ErrorIs(t, err, types.ErrUserIDRequired)
}

// A reader racing a replace observes either the previous portfolio or the new
// one in full; the delete-then-insert is never visible as an empty or mixed
// set.
func TestManager_ReplaceIsAtomicUnderConcurrentReads(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	manager := newTestManager(t, db, types.Hooks{})

	actor := types.ActorRef{ID: uuid.New(), Role: types.SystemRoleOrgAdmin}
	staffID := uuid.New()
	c1, c2, c5 := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, manager.SetAssignments(ctx, actor, staffID, []uuid.UUID{c1, c2}, c1))

	oldSet := map[uuid.UUID]bool{c1: true, c2: true}
	newSet := map[uuid.UUID]bool{c5: true}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = manager.SetAssignments(ctx, actor, staffID, []uuid.UUID{c5}, c5)
	}()

	for i := 0; i < 50; i++ {
		ids, err := manager.AssignedCustomerIDs(ctx, staffID)
		require.NoError(t, err)
		observed := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			observed[id] = true
		}
		matchesOld := len(observed) == len(oldSet)
		matchesNew := len(observed) == len(newSet)
		for id := range observed {
			matchesOld = matchesOld && oldSet[id]
			matchesNew = matchesNew && newSet[id]
		}
		require.True(t, matchesOld || matchesNew,
			"observed set %v is neither the pre-replace nor the post-replace portfolio", ids)
	}
	wg.Wait()

	ids, err := manager.AssignedCustomerIDs(ctx, staffID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{c5}, ids)
}
