package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/stockpace/internal/models"
)

// InsertNotification stores a notification, assigning an ID and creation
// time when missing.
func (db *DB) InsertNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO notifications (id, item_id, notification_type, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.ItemID,
		string(n.Type),
		n.Message,
		boolToInt(n.IsRead),
		formatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns notifications newest first.
func (db *DB) ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := `SELECT id, item_id, notification_type, message, is_read, created_at FROM notifications`
	if unreadOnly {
		query += ` WHERE is_read = 0`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []models.Notification{}
	for rows.Next() {
		var (
			n         models.Notification
			kind      string
			isRead    int
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.ItemID, &kind, &n.Message, &isRead, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Type = models.NotificationType(kind)
		n.IsRead = isRead == 1
		if t, ok := parseTimeString(createdAt); ok {
			n.CreatedAt = t
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ListUnreadNotifications returns every unread notification, newest first.
func (db *DB) ListUnreadNotifications(ctx context.Context) ([]models.Notification, error) {
	return db.ListNotifications(ctx, true, 0)
}

// CountUnreadNotifications returns the number of unread notifications.
func (db *DB) CountUnreadNotifications(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE is_read = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

// MarkNotificationRead marks a notification as read.
func (db *DB) MarkNotificationRead(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return requireRow(result, ErrNotificationNotFound, id)
}

// MarkAllNotificationsRead marks every notification as read.
func (db *DB) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	result, err := db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE is_read = 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected()
}
