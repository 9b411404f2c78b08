package migrations_test

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"sort"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stackwise/go-access/migrations"
	_ "github.com/stackwise/go-access/migrations/bootstrap"
	_ "github.com/stackwise/go-access/migrations/extras"
)

func TestMigrationsApplyToSQLite(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx := context.Background()
	for _, fsys := range migrations.Filesystems() {
		if err := applyFilesystem(ctx, db, fsys); err != nil {
			t.Fatalf("failed to apply migrations: %v", err)
		}
	}

	for _, table := range []string{"role_templates", "custom_roles", "customers", "customer_organizations", "customer_assignments", "users", "access_audit"} {
		var tableName string
		if err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&tableName); err != nil {
			t.Fatalf("failed to verify %s table: %v", table, err)
		}
		if tableName != table {
			t.Fatalf("expected %s table, got %q", table, tableName)
		}
	}

	if err := migrations.ValidateHostSchema(ctx, db, "sqlite"); err != nil {
		t.Fatalf("expected bootstrap users table to satisfy host schema checks: %v", err)
	}
}

func TestValidateHostSchemaReportsMissing(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "CREATE TABLE users (id uuid PRIMARY KEY, role varchar(32))"); err != nil {
		t.Fatalf("failed to create partial users table: %v", err)
	}

	err = migrations.ValidateHostSchema(ctx, db, "sqlite")
	if err == nil {
		t.Fatal("expected validation error for partial users table")
	}
	var validationErr *migrations.HostSchemaValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected HostSchemaValidationError, got %T", err)
	}
	missing := validationErr.MissingColumns["users"]
	sort.Strings(missing)
	want := []string{"access_scope", "custom_role_id", "customer_id", "organization_id"}
	if strings.Join(missing, ",") != strings.Join(want, ",") {
		t.Fatalf("expected missing columns %v, got %v", want, missing)
	}
}

func applyFilesystem(ctx context.Context, db *sql.DB, filesystem fs.FS) error {
	entries, err := fs.Glob(filesystem, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(entries)
	for _, entry := range entries {
		sqlBytes, err := fs.ReadFile(filesystem, entry)
		if err != nil {
			return err
		}
		statements := splitStatements(string(sqlBytes))
		for _, stmt := range statements {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func splitStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
