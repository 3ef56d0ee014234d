package sqlitemigrate

import (
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func TestApplyMigrationsRunsFilesInOrder(t *testing.T) {
	db := newMigrationDB(t)

	files := migrationFS(map[string]string{
		"002_owners.sql":      "-- +migrate Up\nALTER TABLE territories ADD COLUMN owner_id TEXT;",
		"001_territories.sql": "-- +migrate Up\nCREATE TABLE territories(id TEXT PRIMARY KEY);",
	})

	if err := ApplyMigrations(db, files, ""); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	names := appliedNames(t, db)
	if len(names) != 2 || names[0] != "001_territories.sql" || names[1] != "002_owners.sql" {
		t.Fatalf("unexpected applied order: %v", names)
	}
	var owner sql.NullString
	if err := db.QueryRow("SELECT owner_id FROM territories LIMIT 1").Scan(&owner); err != sql.ErrNoRows {
		t.Fatalf("expected empty migrated table, got %v", err)
	}
}

func TestApplyMigrationsReplayIsIdempotent(t *testing.T) {
	db := newMigrationDB(t)

	files := migrationFS(map[string]string{
		"001_territories.sql": "-- +migrate Up\nCREATE TABLE territories(id TEXT PRIMARY KEY);",
	})
	for pass := 0; pass < 3; pass++ {
		if err := ApplyMigrations(db, files, ""); err != nil {
			t.Fatalf("apply pass %d: %v", pass, err)
		}
	}

	if names := appliedNames(t, db); len(names) != 1 {
		t.Fatalf("expected one recorded migration after replay, got %v", names)
	}
}

func TestApplyMigrationsLeavesFailedFileUnrecorded(t *testing.T) {
	db := newMigrationDB(t)

	broken := migrationFS(map[string]string{
		"001_broken.sql": "-- +migrate Up\nCREATE TALBE territories(id TEXT);",
	})
	if err := ApplyMigrations(db, broken, ""); err == nil {
		t.Fatal("expected broken migration to fail")
	}
	if names := appliedNames(t, db); len(names) != 0 {
		t.Fatalf("expected no recorded migrations, got %v", names)
	}

	fixed := migrationFS(map[string]string{
		"001_broken.sql": "-- +migrate Up\nCREATE TABLE territories(id TEXT PRIMARY KEY);",
	})
	if err := ApplyMigrations(db, fixed, ""); err != nil {
		t.Fatalf("apply corrected migration: %v", err)
	}
	if names := appliedNames(t, db); len(names) != 1 {
		t.Fatalf("expected corrected migration recorded, got %v", names)
	}
}

func TestApplyMigrationsScopedToRoot(t *testing.T) {
	db := newMigrationDB(t)

	files := migrationFS(map[string]string{
		"game/001_territories.sql": "-- +migrate Up\nCREATE TABLE territories(id TEXT PRIMARY KEY);",
		"other/001_unrelated.sql":  "-- +migrate Up\nCREATE TABLE unrelated(id TEXT PRIMARY KEY);",
	})

	if err := ApplyMigrations(db, files, "game"); err != nil {
		t.Fatalf("apply scoped migrations: %v", err)
	}

	names := appliedNames(t, db)
	if len(names) != 1 || names[0] != "game/001_territories.sql" {
		t.Fatalf("expected only the scoped migration, got %v", names)
	}
}

func TestApplyMigrationsRequiresDB(t *testing.T) {
	if err := ApplyMigrations(nil, migrationFS(nil), ""); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestExtractUpMigrationStopsAtDownSection(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE territories(id TEXT);\n-- +migrate Down\nDROP TABLE territories;"
	up := ExtractUpMigration(content)
	if up != "\nCREATE TABLE territories(id TEXT);\n" {
		t.Fatalf("unexpected up section %q", up)
	}

	plain := "CREATE TABLE territories(id TEXT);"
	if got := ExtractUpMigration(plain); got != plain {
		t.Fatalf("expected unmarked content unchanged, got %q", got)
	}
}

func TestIsAlreadyExistsError(t *testing.T) {
	db := newMigrationDB(t)
	if _, err := db.Exec("CREATE TABLE territories(id TEXT PRIMARY KEY)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	_, err := db.Exec("CREATE TABLE territories(id TEXT PRIMARY KEY)")
	if err == nil {
		t.Fatal("expected duplicate DDL to fail")
	}
	if !IsAlreadyExistsError(err) {
		t.Fatalf("expected already-exists classification for %v", err)
	}
	_, err = db.Exec("CREAT TABLE nope(id TEXT)")
	if err == nil || IsAlreadyExistsError(err) {
		t.Fatalf("expected syntax error to stay fatal, got %v", err)
	}
}

func newMigrationDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return db
}

func migrationFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func appliedNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM schema_migrations ORDER BY name")
	if err != nil {
		t.Fatalf("query applied migrations: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan migration name: %v", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate migrations: %v", err)
	}
	return names
}
