package recommend

import (
	"math"

	"github.com/j-veylop/stockpace/internal/logger"
)

const (
	weightPaceSimilarity = 0.3
	weightStockSize      = 0.2
	weightDaysRemaining  = 0.3
	weightUserPace       = 0.2

	// flatPenalty replaces a factor whose precondition does not hold.
	// It is added as is, not weighted.
	flatPenalty = 0.1

	minConfidence     = 0.1
	maxConfidence     = 1.0
	neutralConfidence = 0.5
)

// Confidence scores a recommendation from four weighted plausibility factors,
// clamped to [0.1, 1.0].
func Confidence(userPace, marketPace float64, currentQuantity int, daysRemaining float64) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("recommendation confidence failed", "panic", r)
			score = neutralConfidence
		}
	}()

	score = paceSimilarity(userPace, marketPace) +
		stockSize(currentQuantity) +
		daysPlausibility(daysRemaining) +
		pacePlausibility(userPace)

	if math.IsNaN(score) || math.IsInf(score, 0) {
		return neutralConfidence
	}
	return math.Min(math.Max(score, minConfidence), maxConfidence)
}

func paceSimilarity(userPace, marketPace float64) float64 {
	if marketPace <= 0 {
		return flatPenalty
	}
	denom := math.Max(userPace, marketPace)
	return clamp01(1-math.Abs(userPace-marketPace)/denom) * weightPaceSimilarity
}

func stockSize(currentQuantity int) float64 {
	if currentQuantity <= 0 {
		return 0
	}
	return math.Min(1, math.Log(float64(currentQuantity)+1)/math.Log(10)) * weightStockSize
}

func daysPlausibility(days float64) float64 {
	if days <= 0 || days >= 365 {
		return flatPenalty
	}
	return math.Max(1-math.Abs(days-30)/365, 0.1) * weightDaysRemaining
}

func pacePlausibility(userPace float64) float64 {
	if userPace <= 0.001 || userPace >= 10 {
		return flatPenalty
	}
	return math.Max(1-math.Abs(math.Log10(userPace))/4, 0.1) * weightUserPace
}

func clamp01(f float64) float64 {
	return math.Min(math.Max(f, 0), 1)
}
