package db

import (
	"path/filepath"
	"testing"
)

func TestOpenSQLiteWithMigrations_CreatesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "taskdeck.db")
	gdb, err := OpenSQLiteWithMigrations(dbPath)
	if err != nil {
		t.Fatalf("OpenSQLiteWithMigrations failed: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB failed: %v", err)
	}
	defer sqlDB.Close()

	for _, table := range []string{"log_lines", "execution_results"} {
		var count int
		row := sqlDB.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table)
		if err := row.Scan(&count); err != nil {
			t.Fatalf("query sqlite_master failed: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}

	var timeout int
	if err := sqlDB.QueryRow(`PRAGMA busy_timeout;`).Scan(&timeout); err != nil {
		t.Fatalf("query busy_timeout failed: %v", err)
	}
	if timeout < 5000 {
		t.Fatalf("expected busy_timeout >= 5000, got %d", timeout)
	}
}
