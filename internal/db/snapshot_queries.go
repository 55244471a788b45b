package db

import (
	"context"
	"fmt"
	"time"

	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/models"
)

// UpsertSnapshot records the evaluated state of an item for its calendar
// day, replacing any earlier snapshot of the same day.
func (db *DB) UpsertSnapshot(ctx context.Context, s *models.StockSnapshot) error {
	query := `
		INSERT INTO stock_snapshots (
			item_id, day, quantity, pace, market_pace, days_remaining, urgency,
			confidence, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id, day) DO UPDATE SET
			quantity = excluded.quantity,
			pace = excluded.pace,
			market_pace = excluded.market_pace,
			days_remaining = excluded.days_remaining,
			urgency = excluded.urgency,
			confidence = excluded.confidence,
			updated_at = excluded.updated_at
	`

	day := s.Day
	if day.IsZero() {
		day = time.Now()
	}

	_, err := db.ExecContext(ctx, query,
		s.ItemID,
		formatDay(day),
		s.Quantity,
		s.Pace,
		s.MarketPace,
		s.DaysRemaining,
		s.Urgency.String(),
		s.Confidence,
		formatTime(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// GetSnapshots returns an item's snapshots in day order. days limits the
// window to the most recent days ending at now; zero means all.
func (db *DB) GetSnapshots(ctx context.Context, itemID string, days int, now time.Time) ([]models.StockSnapshot, error) {
	query := `
		SELECT item_id, day, quantity, pace, market_pace, days_remaining, urgency,
			   confidence, updated_at
		FROM stock_snapshots
		WHERE item_id = ? AND day >= ?
		ORDER BY day ASC
	`

	since := "0000-01-01"
	if days > 0 {
		since = formatDay(now.AddDate(0, 0, -(days - 1)))
	}

	rows, err := db.QueryContext(ctx, query, itemID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshots := []models.StockSnapshot{}
	for rows.Next() {
		var (
			s                 models.StockSnapshot
			day, updated, urg string
		)
		if err := rows.Scan(
			&s.ItemID,
			&day,
			&s.Quantity,
			&s.Pace,
			&s.MarketPace,
			&s.DaysRemaining,
			&urg,
			&s.Confidence,
			&updated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		if t, ok := parseTimeString(day); ok {
			s.Day = t
		}
		if t, ok := parseTimeString(updated); ok {
			s.UpdatedAt = t
		}
		if s.Urgency, err = models.ParseUrgency(urg); err != nil {
			logger.Warn("unknown snapshot urgency", "item", s.ItemID, "urgency", urg)
		}
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}

// CleanupOldSnapshots deletes snapshots older than the given number of days.
func (db *DB) CleanupOldSnapshots(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := formatDay(time.Now().AddDate(0, 0, -days))

	result, err := db.ExecContext(ctx, `DELETE FROM stock_snapshots WHERE day < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old snapshots: %w", err)
	}
	return result.RowsAffected()
}

// DeleteItemData removes the snapshots and notifications of an item and
// deactivates its recommendations.
func (db *DB) DeleteItemData(ctx context.Context, itemID string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`DELETE FROM stock_snapshots WHERE item_id = ?`,
		`DELETE FROM notifications WHERE item_id = ?`,
		`UPDATE recommendations SET is_active = 0 WHERE item_id = ?`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, itemID); err != nil {
			return fmt.Errorf("failed to delete item data: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit item deletion: %w", err)
	}
	return nil
}
