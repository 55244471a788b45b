package models

import "time"

// TimeRange represents the selected history time range.
type TimeRange int

const (
	// TimeRange7Days shows data from the last 7 days.
	TimeRange7Days TimeRange = iota
	// TimeRange30Days shows data from the last 30 days.
	TimeRange30Days
	// TimeRange90Days shows data from the last 90 days.
	TimeRange90Days
	// TimeRangeAllTime shows all available historical data.
	TimeRangeAllTime
)

// String returns the display name for a time range.
func (t TimeRange) String() string {
	switch t {
	case TimeRange7Days:
		return "7 Days"
	case TimeRange30Days:
		return "30 Days"
	case TimeRange90Days:
		return "90 Days"
	case TimeRangeAllTime:
		return "All Time"
	default:
		return "Unknown"
	}
}

// Days returns the number of days for the time range (0 = unlimited).
func (t TimeRange) Days() int {
	switch t {
	case TimeRange7Days:
		return 7
	case TimeRange30Days:
		return 30
	case TimeRange90Days:
		return 90
	case TimeRangeAllTime:
		return 0
	default:
		return 30
	}
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	return (t + 1) % 4
}

// StockSnapshot is the evaluated state of an item on one calendar day.
type StockSnapshot struct {
	ItemID        string
	Day           time.Time
	Quantity      int
	Pace          float64
	MarketPace    float64
	DaysRemaining int
	Urgency       Urgency
	Confidence    float64
	UpdatedAt     time.Time
}

// WeekdayPattern is the average consumption for one day of the week.
type WeekdayPattern struct {
	DayName     string
	DayOfWeek   int // 0 = Sunday
	AvgConsumed float64
	Occurrences int
}

// ItemHistory contains the chartable history of a single item.
type ItemHistory struct {
	ItemID          string
	ItemName        string
	TimeRange       TimeRange
	Daily           []DailyTotal
	Snapshots       []StockSnapshot
	WeekdayPatterns []WeekdayPattern
	Forecast        *ForecastResult
	FirstDataPoint  time.Time
	LastDataPoint   time.Time
	TotalDataDays   int
}

// HasData returns true if the item has any consumption or snapshot history.
func (h *ItemHistory) HasData() bool {
	return len(h.Daily) > 0 || len(h.Snapshots) > 0
}

// GetPeakDay returns the weekday with highest average consumption.
func (h *ItemHistory) GetPeakDay() (peakDay string, peakVal float64) {
	if len(h.WeekdayPatterns) == 0 {
		return "Unknown", 0
	}
	for _, p := range h.WeekdayPatterns {
		if p.AvgConsumed > peakVal {
			peakVal = p.AvgConsumed
			peakDay = p.DayName
		}
	}
	if peakDay == "" {
		return "Unknown", 0
	}
	return peakDay, peakVal
}

// DaysRemainingSeries returns snapshot days-remaining values in day order.
func (h *ItemHistory) DaysRemainingSeries() []float64 {
	out := make([]float64, len(h.Snapshots))
	for i, s := range h.Snapshots {
		out[i] = float64(s.DaysRemaining)
	}
	return out
}
