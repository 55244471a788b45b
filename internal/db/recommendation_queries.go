package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/models"
)

const maxUrgentItems = 5

const recommendationColumns = `
	id, item_id, item_name, recommendation_type, urgency, user_pace, market_pace,
	days_remaining, message, advice, confidence, additional_info, is_active,
	acknowledged_at, created_at`

// urgencyOrder sorts critical first.
const urgencyOrder = `
	CASE urgency
		WHEN 'critical' THEN 3
		WHEN 'high' THEN 2
		WHEN 'medium' THEN 1
		ELSE 0
	END DESC, days_remaining ASC, id DESC`

// SaveRecommendation stores rec as the active recommendation for its item.
// Earlier active rows for the item are deactivated in the same transaction.
func (db *DB) SaveRecommendation(ctx context.Context, rec *models.StoredRecommendation) error {
	info, err := json.Marshal(rec.AdditionalInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal additional info: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE recommendations SET is_active = 0 WHERE item_id = ? AND is_active = 1`,
		rec.ItemID,
	); err != nil {
		return fmt.Errorf("failed to deactivate previous recommendations: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO recommendations (
			item_id, item_name, recommendation_type, urgency, user_pace, market_pace,
			days_remaining, message, advice, confidence, additional_info, is_active,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		rec.ItemID,
		rec.ItemName,
		rec.Action.String(),
		rec.Urgency.String(),
		rec.UserPace,
		rec.MarketPace,
		rec.EstimatedDaysRemaining,
		rec.Message,
		rec.Advice,
		rec.ConfidenceScore,
		string(info),
		formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recommendation: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		rec.ID = id
	}
	rec.IsActive = true
	rec.AcknowledgedAt = nil
	rec.CreatedAt = createdAt.UTC().Truncate(time.Second)
	return nil
}

// GetRecommendation returns a recommendation by ID.
func (db *DB) GetRecommendation(ctx context.Context, id int64) (*models.StoredRecommendation, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations WHERE id = ?`, id)

	rec, err := scanRecommendation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRecommendationNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecommendations returns recommendations, most urgent first. A limit
// of zero or less means no limit.
func (db *DB) ListRecommendations(ctx context.Context, activeOnly bool, limit int) ([]models.StoredRecommendation, error) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY ` + urgencyOrder
	if limit <= 0 {
		limit = -1
	}
	query += ` LIMIT ?`

	return db.queryRecommendations(ctx, query, limit)
}

// ListActiveRecommendations returns every active recommendation, most urgent first.
func (db *DB) ListActiveRecommendations(ctx context.Context) ([]models.StoredRecommendation, error) {
	return db.ListRecommendations(ctx, true, 0)
}

// ListRecommendationsForItem returns an item's recommendations, newest first.
func (db *DB) ListRecommendationsForItem(ctx context.Context, itemID string, limit int) ([]models.StoredRecommendation, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + recommendationColumns + ` FROM recommendations
		WHERE item_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`
	return db.queryRecommendations(ctx, query, itemID, limit)
}

func (db *DB) queryRecommendations(ctx context.Context, query string, args ...any) ([]models.StoredRecommendation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	recs := []models.StoredRecommendation{}
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecommendation(s scanner) (*models.StoredRecommendation, error) {
	var (
		rec                   models.StoredRecommendation
		action, urgency       string
		advice, info, ackedAt sql.NullString
		createdAt             string
		isActive              int
	)

	err := s.Scan(
		&rec.ID,
		&rec.ItemID,
		&rec.ItemName,
		&action,
		&urgency,
		&rec.UserPace,
		&rec.MarketPace,
		&rec.EstimatedDaysRemaining,
		&rec.Message,
		&advice,
		&rec.ConfidenceScore,
		&info,
		&isActive,
		&ackedAt,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan recommendation: %w", err)
	}

	if rec.Action, err = models.ParseAction(action); err != nil {
		logger.Warn("unknown stored action", "id", rec.ID, "action", action)
	}
	if rec.Urgency, err = models.ParseUrgency(urgency); err != nil {
		logger.Warn("unknown stored urgency", "id", rec.ID, "urgency", urgency)
	}
	rec.Advice = advice.String
	rec.IsActive = isActive == 1

	if info.Valid && info.String != "" {
		if err := json.Unmarshal([]byte(info.String), &rec.AdditionalInfo); err != nil {
			logger.Warn("failed to decode additional info", "id", rec.ID, "error", err)
		}
	}
	if t, ok := parseTimeString(createdAt); ok {
		rec.CreatedAt = t
	}
	if ackedAt.Valid {
		if t, ok := parseTimeString(ackedAt.String); ok {
			rec.AcknowledgedAt = &t
		}
	}

	return &rec, nil
}

// AcknowledgeRecommendation marks a recommendation as seen at the given time.
func (db *DB) AcknowledgeRecommendation(ctx context.Context, id int64, at time.Time) error {
	result, err := db.ExecContext(ctx,
		`UPDATE recommendations SET acknowledged_at = ? WHERE id = ?`,
		nullTime(&at), id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge recommendation: %w", err)
	}
	return requireRow(result, ErrRecommendationNotFound, id)
}

// DeactivateRecommendation dismisses a recommendation.
func (db *DB) DeactivateRecommendation(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE recommendations SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate recommendation: %w", err)
	}
	return requireRow(result, ErrRecommendationNotFound, id)
}

// DeactivateItemRecommendations dismisses every active recommendation of an item.
func (db *DB) DeactivateItemRecommendations(ctx context.Context, itemID string) (int64, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE recommendations SET is_active = 0 WHERE item_id = ? AND is_active = 1`, itemID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate item recommendations: %w", err)
	}
	return result.RowsAffected()
}

func requireRow(result sql.Result, notFound error, id any) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %v", notFound, id)
	}
	return nil
}

// ActiveUrgencies returns the urgency of each item's active recommendation.
func (db *DB) ActiveUrgencies(ctx context.Context) (map[string]models.Urgency, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT item_id, urgency FROM recommendations WHERE is_active = 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active urgencies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]models.Urgency)
	for rows.Next() {
		var itemID, urgency string
		if err := rows.Scan(&itemID, &urgency); err != nil {
			return nil, fmt.Errorf("failed to scan urgency: %w", err)
		}
		if u, err := models.ParseUrgency(urgency); err == nil {
			out[itemID] = u
		}
	}
	return out, rows.Err()
}

// GetRecommendationSummary counts active recommendations by urgency and
// lists up to five high or critical items with the fewest days left.
func (db *DB) GetRecommendationSummary(ctx context.Context) (*models.RecommendationSummary, error) {
	summary := &models.RecommendationSummary{UrgentItems: []models.UrgentItem{}}

	rows, err := db.QueryContext(ctx, `
		SELECT urgency, COUNT(*)
		FROM recommendations
		WHERE is_active = 1
		GROUP BY urgency`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendation counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var urgency string
		var count int
		if err := rows.Scan(&urgency, &count); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation count: %w", err)
		}
		summary.Total += count
		switch urgency {
		case "critical":
			summary.CriticalCount = count
		case "high":
			summary.HighCount = count
		case "medium":
			summary.MediumCount = count
		case "low":
			summary.LowCount = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	urgent, err := db.QueryContext(ctx, `
		SELECT item_id, item_name, days_remaining, urgency
		FROM recommendations
		WHERE is_active = 1 AND urgency IN ('critical', 'high')
		ORDER BY `+urgencyOrder+`
		LIMIT ?`, maxUrgentItems)
	if err != nil {
		return nil, fmt.Errorf("failed to query urgent items: %w", err)
	}
	defer func() { _ = urgent.Close() }()

	for urgent.Next() {
		var item models.UrgentItem
		var urgency string
		if err := urgent.Scan(&item.ItemID, &item.ItemName, &item.DaysRemaining, &urgency); err != nil {
			return nil, fmt.Errorf("failed to scan urgent item: %w", err)
		}
		item.Urgency, _ = models.ParseUrgency(urgency)
		summary.UrgentItems = append(summary.UrgentItems, item)
	}

	return summary, urgent.Err()
}
