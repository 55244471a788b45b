package advisor

import (
	"time"

	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/services/analysis"
)

// History builds the chartable consumption history of an item for the
// given range ending at now. Snapshots are left to the caller.
func (s *Service) History(item models.Item, tr models.TimeRange, now time.Time) models.ItemHistory {
	series := analysis.Normalize(item.Events)

	h := models.ItemHistory{
		ItemID:    item.ID,
		ItemName:  item.Name,
		TimeRange: tr,
	}
	if series.Len() > 0 {
		h.FirstDataPoint = series.First()
		h.LastDataPoint = series.Last()
		h.TotalDataDays = series.Len()
	}

	windowed := models.DailySeries{RawCount: series.RawCount, Days: series.Days}
	if days := tr.Days(); days > 0 {
		cutoff := startOfDay(now).AddDate(0, 0, -(days - 1))
		windowed.Days = make([]models.DailyTotal, 0, len(series.Days))
		for _, d := range series.Days {
			if !d.Day.Before(cutoff) {
				windowed.Days = append(windowed.Days, d)
			}
		}
	}
	h.Daily = windowed.Days
	h.WeekdayPatterns = analysis.WeekdayProfile(windowed)

	if cached, err := s.Cached(item.ID); err == nil {
		f := cached.Forecast
		h.Forecast = &f
	} else {
		f := s.analyzer.Forecast(s.analyzer.AnalyzePattern(series), s.forecastDays)
		h.Forecast = &f
	}
	return h
}

// ForecastBand returns per-day predicted, lower and upper cumulative
// consumption for an item's cached pattern.
func (s *Service) ForecastBand(itemID string) (predicted, lower, upper []float64, err error) {
	advice, err := s.Cached(itemID)
	if err != nil {
		return nil, nil, nil, err
	}
	predicted, lower, upper = s.analyzer.Band(advice.Pattern, s.forecastDays)
	return predicted, lower, upper, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
