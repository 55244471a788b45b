package models

import (
	"fmt"
	"time"
)

// Urgency is the ordinal severity of a restock recommendation.
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyMedium
	UrgencyHigh
	UrgencyCritical
)

// String returns the wire name of the urgency.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyMedium:
		return "medium"
	case UrgencyHigh:
		return "high"
	case UrgencyCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// IsHighPriority reports whether the urgency warrants an alert.
func (u Urgency) IsHighPriority() bool {
	return u >= UrgencyHigh
}

// MarshalText implements encoding.TextMarshaler.
func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Urgency) UnmarshalText(text []byte) error {
	parsed, err := ParseUrgency(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// ParseUrgency converts a wire name into an Urgency.
func ParseUrgency(s string) (Urgency, error) {
	switch s {
	case "low":
		return UrgencyLow, nil
	case "medium":
		return UrgencyMedium, nil
	case "high":
		return UrgencyHigh, nil
	case "critical":
		return UrgencyCritical, nil
	}
	return UrgencyLow, fmt.Errorf("unknown urgency %q", s)
}

// Action is the recommended restock action.
type Action int

const (
	ActionMonitor Action = iota
	ActionPrepare
	ActionPurchaseSoon
	ActionPurchaseNow
	ActionUrgentPurchase
)

// String returns the wire name of the action.
func (a Action) String() string {
	switch a {
	case ActionMonitor:
		return "monitor"
	case ActionPrepare:
		return "prepare"
	case ActionPurchaseSoon:
		return "purchase_soon"
	case ActionPurchaseNow:
		return "purchase_now"
	case ActionUrgentPurchase:
		return "urgent_purchase"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAction converts a wire name into an Action.
func ParseAction(s string) (Action, error) {
	switch s {
	case "monitor":
		return ActionMonitor, nil
	case "prepare":
		return ActionPrepare, nil
	case "purchase_soon":
		return ActionPurchaseSoon, nil
	case "purchase_now":
		return ActionPurchaseNow, nil
	case "urgent_purchase":
		return ActionUrgentPurchase, nil
	}
	return ActionMonitor, fmt.Errorf("unknown action %q", s)
}

// PurchaseTiming is the suggested purchase window.
type PurchaseTiming string

const (
	TimingImmediate     PurchaseTiming = "immediate"
	TimingWithin3Days   PurchaseTiming = "within_3_days"
	TimingThisWeek      PurchaseTiming = "this_week"
	TimingWithin2Weeks  PurchaseTiming = "within_2_weeks"
	TimingMonitorForNow PurchaseTiming = "monitor_for_now"
)

// BudgetImpact is a coarse cost category derived from the user/market pace ratio.
type BudgetImpact string

const (
	BudgetHigherCost         BudgetImpact = "higher_cost"
	BudgetSlightlyHigherCost BudgetImpact = "slightly_higher_cost"
	BudgetAverageCost        BudgetImpact = "average_cost"
	BudgetSlightlyLowerCost  BudgetImpact = "slightly_lower_cost"
	BudgetLowerCost          BudgetImpact = "lower_cost"
	BudgetStandard           BudgetImpact = "standard"
)

// PaceCategory compares the user's pace with the market pace.
type PaceCategory string

const (
	PaceFast         PaceCategory = "fast"
	PaceAboveAverage PaceCategory = "above_average"
	PaceAverage      PaceCategory = "average"
	PaceBelowAverage PaceCategory = "below_average"
	PaceSlow         PaceCategory = "slow"
	PaceStandard     PaceCategory = "standard"
)

// StockLevel is a coarse stock adequacy tag.
type StockLevel string

const (
	StockAdequate StockLevel = "adequate"
	StockLow      StockLevel = "low"
)

// ConsumptionAnalysis compares the user's pace with the market pace.
type ConsumptionAnalysis struct {
	UserPacePerDay   float64      `json:"user_pace_per_day"`
	MarketPacePerDay float64      `json:"market_pace_per_day"`
	PaceComparison   PaceCategory `json:"pace_comparison"`
	EfficiencyScore  float64      `json:"efficiency_score"`
}

// StockAnalysis describes the stock position against the minimum threshold.
type StockAnalysis struct {
	CurrentQuantity  int        `json:"current_quantity"`
	MinimumThreshold int        `json:"minimum_threshold"`
	UsableQuantity   int        `json:"usable_quantity"`
	StockLevel       StockLevel `json:"stock_level"`
}

// TimingRecommendation holds when and how much to buy.
type TimingRecommendation struct {
	EstimatedDaysRemaining int            `json:"estimated_days_remaining"`
	OptimalPurchaseTiming  PurchaseTiming `json:"optimal_purchase_timing"`
	SuggestedQuantity      int            `json:"suggested_quantity"`
}

// BudgetAnalysis holds the coarse cost category.
type BudgetAnalysis struct {
	ConsumptionEfficiency BudgetImpact `json:"consumption_efficiency"`
}

// AdditionalInfo is the structured advisory block attached to a recommendation.
// A nil block means that sub-step was unavailable.
type AdditionalInfo struct {
	ConsumptionAnalysis  *ConsumptionAnalysis  `json:"consumption_analysis,omitempty"`
	StockAnalysis        *StockAnalysis        `json:"stock_analysis,omitempty"`
	TimingRecommendation *TimingRecommendation `json:"timing_recommendation,omitempty"`
	BudgetImpact         *BudgetAnalysis       `json:"budget_impact,omitempty"`
}

// RecommendationResult is the outcome of classifying one item.
// Message contains an unresolved {item_name} placeholder.
type RecommendationResult struct {
	Action                 Action         `json:"recommended_action"`
	Urgency                Urgency        `json:"urgency_level"`
	EstimatedDaysRemaining int            `json:"estimated_days_remaining"`
	Message                string         `json:"recommendation_message"`
	Advice                 string         `json:"advice"`
	ConfidenceScore        float64        `json:"confidence_score"`
	AdditionalInfo         AdditionalInfo `json:"additional_info"`
}

// StoredRecommendation is a persisted recommendation row.
type StoredRecommendation struct {
	ID             int64      `json:"id"`
	ItemID         string     `json:"item_id"`
	ItemName       string     `json:"item_name"`
	UserPace       float64    `json:"user_consumption_pace"`
	MarketPace     float64    `json:"market_consumption_pace"`
	IsActive       bool       `json:"is_active"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	RecommendationResult
}

// UrgentItem is a short entry in the recommendation summary.
type UrgentItem struct {
	ItemID        string  `json:"item_id"`
	ItemName      string  `json:"item_name"`
	DaysRemaining int     `json:"days_remaining"`
	Urgency       Urgency `json:"urgency_level"`
}

// RecommendationSummary counts active recommendations by urgency.
type RecommendationSummary struct {
	Total         int          `json:"total_recommendations"`
	CriticalCount int          `json:"critical_count"`
	HighCount     int          `json:"high_count"`
	MediumCount   int          `json:"medium_count"`
	LowCount      int          `json:"low_count"`
	UrgentItems   []UrgentItem `json:"urgent_items"`
}

// HighPriorityCount is the number of high and critical recommendations.
func (s RecommendationSummary) HighPriorityCount() int {
	return s.HighCount + s.CriticalCount
}
