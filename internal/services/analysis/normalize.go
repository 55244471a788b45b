package analysis

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/models"
)

// eventDateFormats are tried in order when parsing an event date.
var eventDateFormats = []string{
	models.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseEventDate returns the calendar day of an event date string.
func parseEventDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range eventDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func usableQuantity(q float64) bool {
	return q >= 0 && !math.IsNaN(q) && !math.IsInf(q, 0)
}

// Normalize groups events by calendar day, sums each day and sorts the
// result ascending. Events with an unparseable date or an invalid quantity
// are dropped and counted in Discarded.
func Normalize(events []models.ConsumptionEvent) models.DailySeries {
	totals := make(map[time.Time]float64, len(events))
	series := models.DailySeries{}

	for _, e := range events {
		day, ok := parseEventDate(e.Date)
		if !ok || !usableQuantity(e.Quantity) {
			series.Discarded++
			continue
		}
		totals[day] += e.Quantity
		series.RawCount++
	}

	if series.Discarded > 0 {
		logger.Debug("discarded malformed consumption events",
			"discarded", series.Discarded, "usable", series.RawCount)
	}

	series.Days = make([]models.DailyTotal, 0, len(totals))
	for day, q := range totals {
		series.Days = append(series.Days, models.DailyTotal{Day: day, Quantity: q})
	}
	sort.Slice(series.Days, func(i, j int) bool {
		return series.Days[i].Day.Before(series.Days[j].Day)
	})

	return series
}

// WeekdayProfile returns the average daily total per weekday present in the series,
// ordered Sunday first.
func WeekdayProfile(series models.DailySeries) []models.WeekdayPattern {
	var sums [7]float64
	var counts [7]int
	for _, d := range series.Days {
		wd := int(d.Day.Weekday())
		sums[wd] += d.Quantity
		counts[wd]++
	}

	out := make([]models.WeekdayPattern, 0, 7)
	for wd := range 7 {
		if counts[wd] == 0 {
			continue
		}
		out = append(out, models.WeekdayPattern{
			DayName:     time.Weekday(wd).String(),
			DayOfWeek:   wd,
			AvgConsumed: sums[wd] / float64(counts[wd]),
			Occurrences: counts[wd],
		})
	}
	return out
}
