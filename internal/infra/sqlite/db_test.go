package sqlite_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/skillsteps/skillsteps/internal/infra/sqlite"
)

func TestNewDB_OpenAndClose(t *testing.T) {
	t.Parallel()

	path := tempDBPath(t)
	db, err := sqlite.NewDB(context.Background(), path)
	if err != nil {
		t.Fatalf("NewDB(%q) error = %v; want nil", path, err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("db.Close() error = %v; want nil", err)
	}
}

// TestNewDB_WALMode verifies WAL journal mode on file databases.
func TestNewDB_WALMode(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("PRAGMA journal_mode scan error = %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q; want %q", mode, "wal")
	}
}

func TestNewDB_ForeignKeysEnabled(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	var fkEnabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("PRAGMA foreign_keys scan error = %v", err)
	}
	if fkEnabled != 1 {
		t.Errorf("foreign_keys = %d; want 1 (enabled)", fkEnabled)
	}
}

func TestNewDB_BusyTimeout(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	var timeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("PRAGMA busy_timeout scan error = %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d; want 5000 (ms)", timeout)
	}
}

// TestNewDB_InMemory_SharesSchemaAcrossCalls verifies the single-connection
// pin: a table created by one statement is visible to the next.
func TestNewDB_InMemory_SharesSchemaAcrossCalls(t *testing.T) {
	t.Parallel()

	db, err := sqlite.NewDB(context.Background(), sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("NewDB(memory) error = %v; want nil", err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE t (x INTEGER)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.Exec("INSERT INTO t (x) VALUES (1)"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d; want 1 for in-memory", got)
	}
}

func TestNewDB_FileCreated(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "new_db.sqlite")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file %q to not exist before NewDB", path)
	}

	db, err := sqlite.NewDB(context.Background(), path)
	if err != nil {
		t.Fatalf("NewDB(%q) error = %v; want nil", path, err)
	}
	defer db.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("expected DB file %q to be created by NewDB", path)
	}
}

// TestNewDB_InvalidDirectory verifies NewDB does not create missing parents.
func TestNewDB_InvalidDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nonexistent_dir", "db.sqlite")
	db, err := sqlite.NewDB(context.Background(), path)
	if err == nil {
		db.Close()
		t.Errorf("NewDB(%q) = nil error; want error for non-existent parent dir", path)
	}
}

func TestOpen_MigratesSchema(t *testing.T) {
	t.Parallel()

	db, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("Open error = %v", err)
	}
	defer db.Close()

	assertTableExists(t, db, "saved_learning_path")
}

// --- helpers ---

func mustOpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.NewDB(context.Background(), tempDBPath(t))
	if err != nil {
		t.Fatalf("sqlite.NewDB error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.sqlite")
}
