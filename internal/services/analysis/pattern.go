package analysis

import (
	"math"

	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/models"
)

var insufficientPattern = models.ConsumptionPattern{
	AverageDailyConsumption: defaultPace,
	Variance:                0,
	TrendDirection:          models.TrendStable,
	SeasonalPattern:         models.SeasonalNone,
	ConfidenceScore:         insufficientConfidence,
	Policy:                  models.PolicyDefaultInsufficient,
}

// AnalyzePattern derives pace, variance, trend, seasonality and confidence
// from a normalized series.
func (a *Analyzer) AnalyzePattern(series models.DailySeries) (pattern models.ConsumptionPattern) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("pattern analysis failed, using default", "panic", r)
			pattern = insufficientPattern
		}
	}()

	if a.Insufficient(series) {
		return insufficientPattern
	}

	pace := a.EstimatePace(series)
	values := series.Values()

	pattern = models.ConsumptionPattern{
		AverageDailyConsumption: math.Max(pace.Rate, minPace),
		Variance:                sampleVariance(values),
		TrendDirection:          a.trend(values),
		SeasonalPattern:         models.SeasonalNone,
		ConfidenceScore:         Confidence(series.RawCount, models.DaysBetween(series.First(), series.Last())),
		Policy:                  pace.Policy,
	}
	if series.Len() > a.cfg.SeasonalMinDays {
		pattern.SeasonalPattern = a.DetectSeasonality(series)
	}

	if !finite(pattern.Variance) {
		pattern.Variance = 0
	}
	return pattern
}

// trend classifies the least-squares slope of the daily totals over their index.
// Fewer than three days is always stable.
func (a *Analyzer) trend(values []float64) models.TrendDirection {
	if len(values) < 3 {
		return models.TrendStable
	}
	s := slope(values)
	switch {
	case s > a.cfg.TrendThreshold:
		return models.TrendIncreasing
	case s < -a.cfg.TrendThreshold:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

// slope returns the least-squares slope of values against 0..n-1.
func slope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	meanX := (n - 1) / 2
	meanY := mean(values)

	var num, den float64
	for i, y := range values {
		dx := float64(i) - meanX
		num += dx * (y - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	s := num / den
	if !finite(s) {
		return 0
	}
	return s
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleVariance uses the n-1 denominator and returns 0 below two values.
func sampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return ss / float64(len(values)-1)
}

func sampleStdDev(values []float64) float64 {
	return math.Sqrt(sampleVariance(values))
}
