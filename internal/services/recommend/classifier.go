// Package recommend classifies an item's stock position into an urgency
// level and purchase action, scores the recommendation and renders its
// message and advisory metadata.
//
// Like the analysis package, everything here is pure: identical inputs
// always produce identical results, and failures degrade to documented
// defaults instead of errors.
package recommend

import (
	"math"

	"github.com/j-veylop/stockpace/internal/models"
)

const (
	minEffectivePace = 0.01
	prepareMaxDays   = 21
)

// urgencyThresholds are evaluated in order; the first match wins so that a
// value on a boundary resolves to the more severe level.
var urgencyThresholds = [...]struct {
	maxDays float64
	urgency models.Urgency
}{
	{1, models.UrgencyCritical},
	{3, models.UrgencyHigh},
	{7, models.UrgencyMedium},
	{14, models.UrgencyLow},
}

// Input is everything the classifier needs for one item.
type Input struct {
	UserPace         float64
	MarketPace       float64
	CurrentQuantity  int
	MinimumThreshold int
	TargetStockLevel *int
}

// EffectivePace guards the pace against zero and negative values.
func EffectivePace(userPace float64) float64 {
	return math.Max(userPace, minEffectivePace)
}

// DaysRemaining returns how long the stock above the minimum threshold lasts.
func DaysRemaining(userPace float64, currentQuantity, minimumThreshold int) float64 {
	usable := max(currentQuantity-minimumThreshold, 0)
	return float64(usable) / EffectivePace(userPace)
}

// UrgencyFor maps days remaining onto an urgency level.
func UrgencyFor(daysRemaining float64) models.Urgency {
	for _, t := range urgencyThresholds {
		if daysRemaining <= t.maxDays {
			return t.urgency
		}
	}
	return models.UrgencyLow
}

// ActionFor maps an urgency onto an action. Low urgency splits into prepare
// and monitor on days remaining.
func ActionFor(urgency models.Urgency, daysRemaining float64) models.Action {
	switch urgency {
	case models.UrgencyCritical:
		return models.ActionUrgentPurchase
	case models.UrgencyHigh:
		return models.ActionPurchaseNow
	case models.UrgencyMedium:
		return models.ActionPurchaseSoon
	case models.UrgencyLow:
		if daysRemaining <= prepareMaxDays {
			return models.ActionPrepare
		}
		return models.ActionMonitor
	default:
		return models.ActionMonitor
	}
}

// estimatedDays truncates days remaining to a non-negative integer.
func estimatedDays(daysRemaining float64) int {
	if daysRemaining >= math.MaxInt32 {
		return math.MaxInt32
	}
	return max(int(daysRemaining), 0)
}
