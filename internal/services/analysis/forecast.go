package analysis

import (
	"math"

	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/models"
)

// Forecast projects consumption over daysAhead days. Trend applies an
// additive ±10% correction to the base projection. The uncertainty band is
// sqrt(variance) × sqrt(daysAhead) around the prediction, floored at zero.
func (a *Analyzer) Forecast(pattern models.ConsumptionPattern, daysAhead int) (result models.ForecastResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("forecast failed, using neutral projection", "panic", r, "days_ahead", daysAhead)
			result = neutralForecast(daysAhead)
		}
	}()

	if daysAhead <= 0 {
		return models.ForecastResult{
			ConfidenceScore: pattern.ConfidenceScore,
			TrendDirection:  pattern.TrendDirection,
		}
	}

	days := float64(daysAhead)
	base := pattern.AverageDailyConsumption * days

	switch pattern.TrendDirection {
	case models.TrendIncreasing:
		base += base * trendAdjustment
	case models.TrendDecreasing:
		base -= base * trendAdjustment
	}
	predicted := math.Max(base, 0)

	uncertainty := math.Sqrt(math.Max(pattern.Variance, 0)) * math.Sqrt(days)
	if !finite(predicted) || !finite(uncertainty) {
		logger.Warn("non-finite forecast, using neutral projection",
			"pace", pattern.AverageDailyConsumption, "variance", pattern.Variance)
		return neutralForecast(daysAhead)
	}

	return models.ForecastResult{
		DaysAhead:       daysAhead,
		PredictedTotal:  predicted,
		LowerBound:      math.Max(predicted-uncertainty, 0),
		UpperBound:      predicted + uncertainty,
		ConfidenceScore: pattern.ConfidenceScore,
		TrendDirection:  pattern.TrendDirection,
	}
}

func neutralForecast(daysAhead int) models.ForecastResult {
	days := float64(max(daysAhead, 0))
	return models.ForecastResult{
		DaysAhead:       daysAhead,
		PredictedTotal:  days,
		LowerBound:      days * 0.5,
		UpperBound:      days * 1.5,
		ConfidenceScore: insufficientConfidence,
		TrendDirection:  models.TrendStable,
	}
}

// Band returns the cumulative predicted, lower and upper consumption for each
// day 1..daysAhead, for charting a forecast cone.
func (a *Analyzer) Band(pattern models.ConsumptionPattern, daysAhead int) (predicted, lower, upper []float64) {
	predicted = make([]float64, 0, max(daysAhead, 0))
	lower = make([]float64, 0, max(daysAhead, 0))
	upper = make([]float64, 0, max(daysAhead, 0))
	for d := 1; d <= daysAhead; d++ {
		f := a.Forecast(pattern, d)
		predicted = append(predicted, f.PredictedTotal)
		lower = append(lower, f.LowerBound)
		upper = append(upper, f.UpperBound)
	}
	return predicted, lower, upper
}

// Band runs Analyzer.Band with the default configuration.
func Band(pattern models.ConsumptionPattern, daysAhead int) (predicted, lower, upper []float64) {
	return standard.Band(pattern, daysAhead)
}
