package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NotificationType distinguishes persisted stock alerts.
type NotificationType string

const (
	NotificationUrgentStock NotificationType = "urgent_stock_alert"
	NotificationStock       NotificationType = "stock_alert"
)

// Notification is a persisted stock alert.
type Notification struct {
	ID        string           `json:"id"`
	ItemID    string           `json:"item_id"`
	Type      NotificationType `json:"notification_type"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// ItemAdvice is the full evaluation of a single pantry item.
type ItemAdvice struct {
	Item           Item                 `json:"item"`
	Pattern        ConsumptionPattern   `json:"pattern"`
	Forecast       ForecastResult       `json:"forecast"`
	Market         MarketData           `json:"market"`
	Recommendation RecommendationResult `json:"recommendation"`
	DisplayMessage string               `json:"display_message"`
	MonthlySpend   *decimal.Decimal     `json:"monthly_spend,omitempty"`
	EvaluatedAt    time.Time            `json:"evaluated_at"`
}

// PantryStats summarizes the current pantry evaluation.
type PantryStats struct {
	TotalItems        int
	EvaluatedItems    int
	SkippedItems      int
	CriticalItems     int
	HighItems         int
	MediumItems       int
	LowItems          int
	UnreadAlerts      int
	MonthlySpend      decimal.Decimal
	LastEvaluation    time.Time
	MarketCacheHits   int64
	MarketCacheMisses int64
	MarketFailures    int64
}
