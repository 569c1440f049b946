package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	delivery "github.com/goliatone/go-delivery"
	_ "github.com/mattn/go-sqlite3"
)

func TestFilesystems_ReturnsPostgresAndSQLite(t *testing.T) {
	filesystems, err := Filesystems()
	if err != nil {
		t.Fatalf("filesystems: %v", err)
	}
	if len(filesystems) != 2 {
		t.Fatalf("expected 2 filesystems, got %d", len(filesystems))
	}

	var postgresFound bool
	var sqliteFound bool
	for _, entry := range filesystems {
		matches, globErr := fs.Glob(entry.FS, "*.up.sql")
		if globErr != nil {
			t.Fatalf("glob %s: %v", entry.Dialect, globErr)
		}
		if len(matches) == 0 {
			t.Fatalf("expected %s migration files, got none", entry.Dialect)
		}
		switch entry.Dialect {
		case DialectPostgres:
			postgresFound = true
		case DialectSQLite:
			sqliteFound = true
		}
	}

	if !postgresFound {
		t.Fatalf("expected postgres filesystem")
	}
	if !sqliteFound {
		t.Fatalf("expected sqlite filesystem")
	}
}

func TestRegister_UsesValidationTargets(t *testing.T) {
	var calls []string
	_, err := Register(context.Background(), func(_ context.Context, dialect string, _ string, _ fs.FS) error {
		calls = append(calls, dialect)
		return nil
	}, WithValidationTargets(DialectSQLite))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("expected 1 registration call, got %d", len(calls))
	}
	if calls[0] != DialectSQLite {
		t.Fatalf("expected sqlite registration, got %q", calls[0])
	}
}

func TestDeliveryRecordsMigrationPair_ExistsForBothDialects(t *testing.T) {
	root := delivery.GetMigrationsFS()
	paths := []string{
		"data/sql/migrations/20260301000000_create_delivery_records.up.sql",
		"data/sql/migrations/20260301000000_create_delivery_records.down.sql",
		"data/sql/migrations/sqlite/20260301000000_create_delivery_records.up.sql",
		"data/sql/migrations/sqlite/20260301000000_create_delivery_records.down.sql",
	}
	for _, migrationPath := range paths {
		content, err := fs.ReadFile(root, migrationPath)
		if err != nil {
			t.Fatalf("read migration %s: %v", migrationPath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected migration %s to have SQL content", migrationPath)
		}
	}
}

func TestSQLiteDeliveryRecordsMigration_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-delivery-records?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	root := delivery.GetMigrationsFS()
	sqliteMigrations, err := fs.Sub(root, "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}

	if err := execSQLMigration(
		context.Background(),
		db,
		sqliteMigrations,
		"20260301000000_create_delivery_records.up.sql",
	); err != nil {
		t.Fatalf("apply delivery records migration up: %v", err)
	}

	if _, err := db.ExecContext(
		context.Background(),
		`INSERT INTO delivery_records
			(id, kind, payload, status, attempts, max_attempts, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		"rec_migration_1",
		"email",
		[]byte(`{"to":"family@example.com"}`),
		"pending",
		0,
		3,
		"",
		"2026-03-01T00:00:00Z",
	); err != nil {
		t.Fatalf("insert delivery record: %v", err)
	}

	if _, err := db.ExecContext(
		context.Background(),
		`INSERT INTO delivery_records
			(id, kind, status, attempts, max_attempts, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"rec_migration_2",
		"email",
		"shipped",
		0,
		3,
		"",
		"2026-03-01T00:00:00Z",
	); err == nil {
		t.Fatalf("expected status check constraint violation")
	}

	var claimIndexCount int
	if err := db.QueryRowContext(
		context.Background(),
		`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?`,
		"idx_delivery_records_claim",
	).Scan(&claimIndexCount); err != nil {
		t.Fatalf("query claim index: %v", err)
	}
	if claimIndexCount != 1 {
		t.Fatalf("expected claim index after up migration")
	}

	if err := execSQLMigration(
		context.Background(),
		db,
		sqliteMigrations,
		"20260301000000_create_delivery_records.down.sql",
	); err != nil {
		t.Fatalf("apply delivery records migration down: %v", err)
	}

	var tableCount int
	if err := db.QueryRowContext(
		context.Background(),
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`,
		"delivery_records",
	).Scan(&tableCount); err != nil {
		t.Fatalf("query sqlite_master after down: %v", err)
	}
	if tableCount != 0 {
		t.Fatalf("expected delivery_records to be dropped after down migration")
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
