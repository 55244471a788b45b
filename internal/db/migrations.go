package db

import (
	"context"
	"fmt"
)

// column is a column added after the first release of a table.
type column struct {
	table      string
	name       string
	definition string
}

// addedColumns are applied to databases created by older versions.
var addedColumns = []column{
	{"recommendations", "advice", "TEXT DEFAULT ''"},
	{"recommendations", "additional_info", "TEXT"},
	{"recommendations", "acknowledged_at", "DATETIME"},
	{"stock_snapshots", "market_pace", "REAL DEFAULT 0"},
	{"stock_snapshots", "confidence", "REAL DEFAULT 0"},
}

// migrate brings older schemas up to date.
func (db *DB) migrate() error {
	for _, c := range addedColumns {
		if err := db.ensureColumn(c); err != nil {
			return err
		}
	}
	return db.FixLegacyTimeFormats()
}

func (db *DB) ensureColumn(c column) error {
	exists, err := db.hasColumn(c.table, c.name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.table, c.name, c.definition)
	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", c.table, c.name, err)
	}
	return nil
}

func (db *DB) hasColumn(table, name string) (bool, error) {
	rows, err := db.QueryContext(context.Background(), "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return false, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return false, fmt.Errorf("failed to scan column name: %w", err)
		}
		if col == name {
			return true, nil
		}
	}
	return false, rows.Err()
}

// FixLegacyTimeFormats rewrites timestamps stored with Go's time.String
// layout (" +0000 UTC" suffix) into a form SQLite's date functions accept.
func (db *DB) FixLegacyTimeFormats() error {
	queries := []string{
		`UPDATE recommendations
		 SET created_at = SUBSTR(created_at, 1, 19)
		 WHERE length(created_at) > 19 AND created_at LIKE '% UTC'`,

		`UPDATE stock_snapshots
		 SET updated_at = SUBSTR(updated_at, 1, 19)
		 WHERE length(updated_at) > 19 AND updated_at LIKE '% UTC'`,

		`UPDATE notifications
		 SET created_at = SUBSTR(created_at, 1, 19)
		 WHERE length(created_at) > 19 AND created_at LIKE '% UTC'`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(context.Background(), query); err != nil {
			return fmt.Errorf("failed to fix legacy time formats: %w", err)
		}
	}

	return nil
}
