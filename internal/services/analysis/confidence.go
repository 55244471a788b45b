package analysis

import (
	"math"

	"github.com/j-veylop/stockpace/internal/logger"
)

const neutralConfidence = 0.5

// Confidence scores an estimate from the number of usable events and the
// span in days between the first and last of them. A negative span means
// the dates are unknown and only the count-based score is returned.
func Confidence(eventCount, spanDays int) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("confidence scoring failed", "panic", r)
			score = neutralConfidence
		}
	}()

	switch {
	case eventCount < 3:
		score = 0.3
	case eventCount < 10:
		score = 0.6
	case eventCount < 30:
		score = 0.8
	default:
		score = 0.9
	}

	if spanDays < 0 {
		return score
	}

	switch {
	case spanDays > 90:
		score += 0.1
	case spanDays > 30:
		score += 0.05
	}

	return math.Min(score, 1.0)
}
