package recommend

import (
	"math"
	"strings"

	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/models"
)

const defaultEstimatedDays = 7

// Default returns the canned recommendation used after an internal failure.
func Default() models.RecommendationResult {
	return models.RecommendationResult{
		Action:                 models.ActionMonitor,
		Urgency:                models.UrgencyLow,
		EstimatedDaysRemaining: defaultEstimatedDays,
		Message:                defaultMessage,
		Advice:                 defaultAdvice,
		ConfidenceScore:        0.3,
	}
}

// Recommend classifies an item and composes its message and advisory blocks.
// It never fails: non-finite paces and internal faults produce Default().
func Recommend(in Input) (result models.RecommendationResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("recommendation failed, using default", "panic", r)
			result = Default()
		}
	}()

	if !finite(in.UserPace) || !finite(in.MarketPace) {
		logger.Warn("non-finite pace, using default recommendation",
			"user_pace", in.UserPace, "market_pace", in.MarketPace)
		return Default()
	}

	pace := EffectivePace(in.UserPace)
	days := DaysRemaining(in.UserPace, in.CurrentQuantity, in.MinimumThreshold)
	urgency := UrgencyFor(days)
	action := ActionFor(urgency, days)
	message, advice := composeMessage(action, days, pace, in.MarketPace)

	return models.RecommendationResult{
		Action:                 action,
		Urgency:                urgency,
		EstimatedDaysRemaining: estimatedDays(days),
		Message:                message,
		Advice:                 advice,
		ConfidenceScore:        Confidence(in.UserPace, in.MarketPace, in.CurrentQuantity, days),
		AdditionalInfo:         composeInfo(in, pace, days),
	}
}

// Render substitutes the item name placeholder in a message.
func Render(message, itemName string) string {
	return strings.ReplaceAll(message, ItemNamePlaceholder, itemName)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
