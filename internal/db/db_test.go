package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if db.Path() != dbPath {
		t.Errorf("Expected path %s, got %s", dbPath, db.Path())
	}

	// Verify file exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database with nested path: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("Nested directories were not created")
	}
}

func TestSchema_TablesExist(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	tables := []string{
		"recommendations",
		"stock_snapshots",
		"notifications",
	}

	for _, table := range tables {
		var name string
		err := db.QueryRowContext(context.Background(), "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s does not exist: %v", table, err)
		}
	}
}

func TestMigrate_AddsMissingColumns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	_, err = legacy.ExecContext(context.Background(), `
		CREATE TABLE recommendations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id TEXT NOT NULL,
			item_name TEXT NOT NULL,
			recommendation_type TEXT NOT NULL,
			urgency TEXT NOT NULL,
			user_pace REAL DEFAULT 0,
			market_pace REAL DEFAULT 0,
			days_remaining INTEGER DEFAULT 0,
			message TEXT NOT NULL,
			confidence REAL DEFAULT 0,
			is_active INTEGER DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		INSERT INTO recommendations (item_id, item_name, recommendation_type, urgency, message, created_at)
		VALUES ('rice', 'Rice', 'monitor', 'low', 'ok', '2026-01-02 03:04:05 +0000 UTC');
	`)
	if err != nil {
		t.Fatalf("failed to create legacy schema: %v", err)
	}
	_ = legacy.Close()

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() on legacy database failed: %v", err)
	}
	defer db.Close()

	for _, col := range []string{"advice", "additional_info", "acknowledged_at"} {
		ok, err := db.hasColumn("recommendations", col)
		if err != nil || !ok {
			t.Errorf("column %s missing after migration (err=%v)", col, err)
		}
	}

	var createdAt string
	if err := db.QueryRowContext(context.Background(),
		"SELECT CAST(created_at AS TEXT) FROM recommendations").Scan(&createdAt); err != nil {
		t.Fatal(err)
	}
	if createdAt != "2026-01-02 03:04:05" {
		t.Errorf("created_at = %q, want legacy suffix removed", createdAt)
	}

	recs, err := db.ListActiveRecommendations(context.Background())
	if err != nil || len(recs) != 1 {
		t.Fatalf("ListActiveRecommendations() = %v, %v", recs, err)
	}
	if recs[0].Advice != "" || recs[0].AcknowledgedAt != nil {
		t.Errorf("legacy row = %+v", recs[0])
	}
}

func TestVacuum(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if err := db.Vacuum(); err != nil {
		t.Errorf("Vacuum failed: %v", err)
	}
}

func TestClose(t *testing.T) {
	db := newTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	// Verify database is closed by trying to query
	_, err := db.QueryContext(context.Background(), "SELECT 1")
	if err == nil {
		t.Error("Expected error querying closed database")
	}
}

// Helper to create a test database
func newTestDB(t *testing.T) *DB {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	return db
}
