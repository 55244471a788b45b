package models

import "time"

// TrendDirection is the sign of the linear trend of daily consumption.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// SeasonalPattern tags a detected periodic variation in daily consumption.
type SeasonalPattern string

const (
	SeasonalNone    SeasonalPattern = "none"
	SeasonalWeekly  SeasonalPattern = "weekly"
	SeasonalMonthly SeasonalPattern = "monthly"
)

// PacePolicy records which rule produced a pace estimate.
type PacePolicy string

const (
	PolicyDefaultInsufficient PacePolicy = "default-insufficient"
	PolicyWholeSpan           PacePolicy = "whole-span"
	PolicyDailyAggregate      PacePolicy = "daily-aggregate"
)

// DailyTotal is the summed consumption for one calendar day.
type DailyTotal struct {
	Day      time.Time `json:"day"`
	Quantity float64   `json:"quantity"`
}

// DailySeries is the per-day aggregated consumption history.
// Days are strictly increasing with no duplicates; days without events are absent.
type DailySeries struct {
	Days []DailyTotal `json:"days"`

	// RawCount is the number of usable raw events that fed the series.
	RawCount int `json:"raw_count"`
	// Discarded is the number of events rejected as malformed.
	Discarded int `json:"discarded"`
}

// Len returns the number of distinct days.
func (s DailySeries) Len() int {
	return len(s.Days)
}

// Total returns the sum of all daily totals.
func (s DailySeries) Total() float64 {
	var sum float64
	for _, d := range s.Days {
		sum += d.Quantity
	}
	return sum
}

// First returns the earliest day, or zero for an empty series.
func (s DailySeries) First() time.Time {
	if len(s.Days) == 0 {
		return time.Time{}
	}
	return s.Days[0].Day
}

// Last returns the latest day, or zero for an empty series.
func (s DailySeries) Last() time.Time {
	if len(s.Days) == 0 {
		return time.Time{}
	}
	return s.Days[len(s.Days)-1].Day
}

// SpanDays returns the inclusive number of calendar days covered.
func (s DailySeries) SpanDays() int {
	if len(s.Days) == 0 {
		return 0
	}
	return DaysBetween(s.First(), s.Last()) + 1
}

// Values returns the daily totals in day order.
func (s DailySeries) Values() []float64 {
	out := make([]float64, len(s.Days))
	for i, d := range s.Days {
		out[i] = d.Quantity
	}
	return out
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// PaceEstimate is an average daily consumption rate with the rule that produced it.
type PaceEstimate struct {
	Rate   float64    `json:"rate"`
	Policy PacePolicy `json:"policy"`
}

// ConsumptionPattern is the statistical summary of an item's consumption.
type ConsumptionPattern struct {
	AverageDailyConsumption float64         `json:"average_daily_consumption"`
	Variance                float64         `json:"consumption_variance"`
	TrendDirection          TrendDirection  `json:"trend_direction"`
	SeasonalPattern         SeasonalPattern `json:"seasonal_pattern"`
	ConfidenceScore         float64         `json:"confidence_score"`
	Policy                  PacePolicy      `json:"policy"`
}

// ForecastResult is a forward projection of consumption over a horizon.
type ForecastResult struct {
	DaysAhead       int            `json:"days_ahead"`
	PredictedTotal  float64        `json:"predicted_consumption"`
	LowerBound      float64        `json:"confidence_interval_lower"`
	UpperBound      float64        `json:"confidence_interval_upper"`
	ConfidenceScore float64        `json:"confidence_score"`
	TrendDirection  TrendDirection `json:"trend_direction"`
}
