// Package db manages the database connection
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

var (
	// ErrRecommendationNotFound is returned when no recommendation has the given ID.
	ErrRecommendationNotFound = errors.New("recommendation not found")
	// ErrNotificationNotFound is returned when no notification has the given ID.
	ErrNotificationNotFound = errors.New("notification not found")
)

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New creates a new database connection and initializes the schema.
func New(path string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if err := db.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := db.createIndexes(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// configure sets up database pragmas for optimal performance.
func (db *DB) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-16000", // 16MB cache
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (db *DB) createSchema() error {
	if err := db.createRecommendationsTable(); err != nil {
		return err
	}
	if err := db.createStockSnapshotsTable(); err != nil {
		return err
	}
	return db.createNotificationsTable()
}

func (db *DB) createRecommendationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS recommendations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT NOT NULL,
		item_name TEXT NOT NULL,
		recommendation_type TEXT NOT NULL,
		urgency TEXT NOT NULL,
		user_pace REAL DEFAULT 0,
		market_pace REAL DEFAULT 0,
		days_remaining INTEGER DEFAULT 0,
		message TEXT NOT NULL,
		advice TEXT DEFAULT '',
		confidence REAL DEFAULT 0,
		additional_info TEXT,
		is_active INTEGER DEFAULT 1,
		acknowledged_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createStockSnapshotsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS stock_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT NOT NULL,
		day DATE NOT NULL,
		quantity INTEGER DEFAULT 0,
		pace REAL DEFAULT 0,
		market_pace REAL DEFAULT 0,
		days_remaining INTEGER DEFAULT 0,
		urgency TEXT DEFAULT 'low',
		confidence REAL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		day_of_week INTEGER GENERATED ALWAYS AS (CAST(strftime('%w', day) AS INTEGER)) STORED,
		UNIQUE(item_id, day)
	);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createNotificationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		notification_type TEXT NOT NULL,
		message TEXT NOT NULL,
		is_read INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

// createIndexes runs after migrate so indexed columns exist on old databases.
func (db *DB) createIndexes() error {
	query := `
	CREATE INDEX IF NOT EXISTS idx_recommendations_item_active ON recommendations(item_id, is_active);
	CREATE INDEX IF NOT EXISTS idx_recommendations_created ON recommendations(created_at);
	CREATE INDEX IF NOT EXISTS idx_snapshots_item_day ON stock_snapshots(item_id, day);
	CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(is_read, created_at);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

// Close closes the database connection gracefully.
func (db *DB) Close() error {
	// Checkpoint WAL before closing
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}

// Vacuum performs database maintenance to reclaim space.
func (db *DB) Vacuum() error {
	_, err := db.ExecContext(context.Background(), "VACUUM")
	return err
}
