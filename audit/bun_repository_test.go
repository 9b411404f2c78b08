package audit

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stackwise/go-access/pkg/types"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const auditSchemaDDL = `
CREATE TABLE access_audit (
    id TEXT PRIMARY KEY,
    actor_id TEXT,
    subject_user_id TEXT,
    role_id TEXT,
    organization_id TEXT,
    customer_id TEXT,
    verb TEXT NOT NULL,
    data TEXT,
    created_at TIMESTAMP NOT NULL
);
`

func newTestAuditDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open("sqlite3", ":memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})
	for _, stmt := range strings.Split(auditSchemaDDL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func TestRepository_LogAndList(t *testing.T) {
	ctx := context.Background()
	store, err := NewRepository(RepositoryConfig{DB: newTestAuditDB(t)})
	require.NoError(t, err)

	actor := uuid.New()
	subject := uuid.New()
	orgID := uuid.New()

	require.NoError(t, store.Log(ctx, Record{
		ActorID:        actor,
		SubjectUserID:  subject,
		OrganizationID: orgID,
		Verb:           "user_overrides.replaced",
		Data: map[string]any{
			"patterns": []string{"measurement.create"},
			"reason":   "entry suspended",
		},
	}))
	require.NoError(t, store.Log(ctx, Record{
		ActorID: actor,
		Verb:    "role.created",
	}))

	page, err := store.ListRecords(ctx, Filter{
		Verb:       "user_overrides.replaced",
		Pagination: types.Pagination{Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, subject, page.Records[0].SubjectUserID)
	require.Equal(t, "entry suspended", page.Records[0].Data["reason"])

	page, err = store.ListRecords(ctx, Filter{ActorID: actor})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
}

func TestRepository_AnchorFilter(t *testing.T) {
	ctx := context.Background()
	store, err := NewRepository(RepositoryConfig{DB: newTestAuditDB(t)})
	require.NoError(t, err)

	orgA := uuid.New()
	orgB := uuid.New()
	require.NoError(t, store.Log(ctx, Record{OrganizationID: orgA, Verb: "role.created"}))
	require.NoError(t, store.Log(ctx, Record{OrganizationID: orgB, Verb: "role.created"}))

	page, err := store.ListRecords(ctx, Filter{Anchor: types.TenantAnchor{OrganizationID: orgA}})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, orgA, page.Records[0].OrganizationID)
}

func TestSanitizeRecord_MasksDenylistedFields(t *testing.T) {
	record := SanitizeRecord(nil, Record{
		Verb: "role.updated",
		Data: map[string]any{
			"secret": "hunter2hunter2",
			"name":   "Senior Operator",
		},
	})
	require.Equal(t, "Senior Operator", record.Data["name"])
	require.NotEqual(t, "hunter2hunter2", record.Data["secret"])
}

func TestFromRoleEvent(t *testing.T) {
	occurred := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	event := types.RoleEvent{
		RoleID:     uuid.New(),
		ActorID:    uuid.New(),
		Action:     "role.deleted",
		Anchor:     types.TenantAnchor{CustomerID: uuid.New()},
		OccurredAt: occurred,
	}
	record := FromRoleEvent(event, map[string]any{"name": "Legacy"})
	require.Equal(t, event.RoleID, record.RoleID)
	require.Equal(t, "role.deleted", record.Verb)
	require.Equal(t, event.Anchor.CustomerID, record.CustomerID)
	require.Equal(t, occurred, record.CreatedAt)
}
