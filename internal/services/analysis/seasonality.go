package analysis

import (
	"github.com/j-veylop/stockpace/internal/models"
)

// DetectSeasonality tags weekly or monthly variation in daily totals.
// The weekly check runs first; the monthly check needs more than
// MonthlyMinDays distinct days.
func (a *Analyzer) DetectSeasonality(series models.DailySeries) models.SeasonalPattern {
	if varies(weekdayMeans(series), a.cfg.WeeklyRatio) {
		return models.SeasonalWeekly
	}
	if series.Len() > a.cfg.MonthlyMinDays && varies(monthMeans(series), a.cfg.MonthlyRatio) {
		return models.SeasonalMonthly
	}
	return models.SeasonalNone
}

// varies reports whether the sample std of bucket means exceeds ratio × their mean.
func varies(bucketMeans []float64, ratio float64) bool {
	if len(bucketMeans) < 2 {
		return false
	}
	m := mean(bucketMeans)
	if m <= 0 {
		return false
	}
	return sampleStdDev(bucketMeans) > ratio*m
}

func weekdayMeans(series models.DailySeries) []float64 {
	profile := WeekdayProfile(series)
	out := make([]float64, len(profile))
	for i, p := range profile {
		out[i] = p.AvgConsumed
	}
	return out
}

// monthMeans buckets by calendar month (1-12) regardless of year.
func monthMeans(series models.DailySeries) []float64 {
	var sums [12]float64
	var counts [12]int
	for _, d := range series.Days {
		m := int(d.Day.Month()) - 1
		sums[m] += d.Quantity
		counts[m]++
	}

	out := make([]float64, 0, 12)
	for m := range 12 {
		if counts[m] > 0 {
			out = append(out, sums[m]/float64(counts[m]))
		}
	}
	return out
}
