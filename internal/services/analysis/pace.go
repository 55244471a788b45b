package analysis

import (
	"math"

	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/models"
)

var defaultPaceEstimate = models.PaceEstimate{
	Rate:   defaultPace,
	Policy: models.PolicyDefaultInsufficient,
}

// EstimatePace computes the average daily consumption of a normalized series.
//
// Fewer than MinDataPoints usable events yield the default rate of 1.0.
// A series with a single distinct day divides the total by its (inclusive)
// span without a floor. Otherwise the total is divided by the inclusive span
// between the first and last day and floored at 0.1.
func (a *Analyzer) EstimatePace(series models.DailySeries) (est models.PaceEstimate) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("pace estimation failed, using default", "panic", r)
			est = defaultPaceEstimate
		}
	}()

	if a.Insufficient(series) {
		return defaultPaceEstimate
	}

	if series.Len() < 2 {
		rate := series.Total() / float64(max(1, series.SpanDays()))
		if !finite(rate) {
			return defaultPaceEstimate
		}
		return models.PaceEstimate{Rate: rate, Policy: models.PolicyWholeSpan}
	}

	rate := series.Total() / float64(series.SpanDays())
	if !finite(rate) {
		logger.Warn("non-finite pace, using default", "total", series.Total(), "span", series.SpanDays())
		return defaultPaceEstimate
	}
	return models.PaceEstimate{Rate: math.Max(rate, minPace), Policy: models.PolicyDailyAggregate}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
