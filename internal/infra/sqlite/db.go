// Package sqlite opens the SkillSteps SQLite database and applies its schema.
// Uses modernc.org/sqlite, a pure-Go driver (no CGO required).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Register the modernc sqlite driver under the name "sqlite"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database. Used by tests.
const MemoryPath = ":memory:"

// NewDB opens (or creates) a SQLite database at path with:
//   - WAL journal mode (readers do not block the writer)
//   - foreign key enforcement (saved paths cascade with their owner)
//   - 5-second busy timeout
//   - synchronous=NORMAL
//
// The parent directory must exist; NewDB does not create it.
// An in-memory database is pinned to one connection, since every
// connection to ":memory:" would otherwise see its own empty schema.
func NewDB(ctx context.Context, path string) (*sql.DB, error) {
	if path != MemoryPath {
		dir := filepath.Dir(path)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil, fmt.Errorf("sqlite.NewDB: parent directory %q does not exist", dir)
		}
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(ON)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.NewDB: open %q: %w", path, err)
	}

	if path == MemoryPath {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(8)
		db.SetMaxIdleConns(4)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("sqlite.NewDB: ping %q: %w", path, err)
	}

	return db, nil
}

// Open is NewDB followed by MigrateUp. The returned DB is ready for the
// auth service and the path store.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := NewDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := MigrateUp(ctx, db); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return db, nil
}
