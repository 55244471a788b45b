package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/j-veylop/stockpace/internal/models"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// daily returns one event per consecutive day starting at start.
func daily(start time.Time, quantities ...float64) []models.ConsumptionEvent {
	events := make([]models.ConsumptionEvent, len(quantities))
	for i, q := range quantities {
		events[i] = models.NewEvent(start.AddDate(0, 0, i), q)
	}
	return events
}

func repeat(q float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = q
	}
	return out
}

func TestNormalize(t *testing.T) {
	events := []models.ConsumptionEvent{
		{Date: "2026-01-03", Quantity: 1},
		{Date: "2026-01-01", Quantity: 2},
		{Date: "2026-01-03T18:30:00Z", Quantity: 0.5},
		{Date: "not-a-date", Quantity: 4},
		{Date: "", Quantity: 1},
		{Date: "2026-01-02", Quantity: -1},
		{Date: "2026-01-02", Quantity: math.NaN()},
		{Date: "2026-01-02", Quantity: math.Inf(1)},
		{Date: "2026-01-02", Quantity: 0},
	}

	series := Normalize(events)

	if series.RawCount != 4 {
		t.Errorf("RawCount = %d, want 4", series.RawCount)
	}
	if series.Discarded != 5 {
		t.Errorf("Discarded = %d, want 5", series.Discarded)
	}
	want := []float64{2, 0, 1.5}
	if series.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", series.Len(), len(want))
	}
	for i, w := range want {
		if !approxEqual(series.Days[i].Quantity, w) {
			t.Errorf("day %d total = %v, want %v", i, series.Days[i].Quantity, w)
		}
		if i > 0 && !series.Days[i].Day.After(series.Days[i-1].Day) {
			t.Errorf("days not strictly increasing at %d", i)
		}
	}
}

func TestNormalize_Empty(t *testing.T) {
	series := Normalize(nil)
	if series.Len() != 0 || series.RawCount != 0 {
		t.Errorf("Normalize(nil) = %+v, want empty", series)
	}
}

func TestEstimatePace(t *testing.T) {
	sameDay := []models.ConsumptionEvent{
		{Date: "2026-01-05", Quantity: 2},
		{Date: "2026-01-05", Quantity: 2},
		{Date: "2026-01-05", Quantity: 2},
	}
	tinySameDay := []models.ConsumptionEvent{
		{Date: "2026-01-05", Quantity: 0.01},
		{Date: "2026-01-05", Quantity: 0.01},
		{Date: "2026-01-05", Quantity: 0.01},
	}
	sparse := []models.ConsumptionEvent{
		{Date: "2026-01-01", Quantity: 0.1},
		{Date: "2026-02-19", Quantity: 0.1},
		{Date: "2026-04-10", Quantity: 0.1},
	}
	inclusive := []models.ConsumptionEvent{
		{Date: "2026-01-01", Quantity: 2},
		{Date: "2026-01-03", Quantity: 2},
		{Date: "2026-01-03", Quantity: 2},
	}

	tests := []struct {
		name       string
		events     []models.ConsumptionEvent
		wantRate   float64
		wantPolicy models.PacePolicy
	}{
		{"no events", nil, 1.0, models.PolicyDefaultInsufficient},
		{"two events", daily(epoch, 5, 5), 1.0, models.PolicyDefaultInsufficient},
		{"single distinct day", sameDay, 6, models.PolicyWholeSpan},
		{"single day is not floored", tinySameDay, 0.03, models.PolicyWholeSpan},
		{"consecutive days", daily(epoch, repeat(1, 10)...), 1.0, models.PolicyDailyAggregate},
		{"inclusive span", inclusive, 2, models.PolicyDailyAggregate},
		{"floored at 0.1", sparse, 0.1, models.PolicyDailyAggregate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimatePace(tt.events)
			if !approxEqual(got.Rate, tt.wantRate) {
				t.Errorf("Rate = %v, want %v", got.Rate, tt.wantRate)
			}
			if got.Policy != tt.wantPolicy {
				t.Errorf("Policy = %v, want %v", got.Policy, tt.wantPolicy)
			}
		})
	}
}

func TestAnalyze_InsufficientData(t *testing.T) {
	inputs := [][]models.ConsumptionEvent{
		nil,
		daily(epoch, 3),
		daily(epoch, 3, 9),
		{{Date: "bad", Quantity: 1}, {Date: "2026-01-01", Quantity: 1}, {Date: "2026-01-02", Quantity: -4}},
	}
	for i, events := range inputs {
		p := Analyze(events)
		if p.AverageDailyConsumption != 1.0 {
			t.Errorf("case %d: pace = %v, want 1.0", i, p.AverageDailyConsumption)
		}
		if p.TrendDirection != models.TrendStable {
			t.Errorf("case %d: trend = %v, want stable", i, p.TrendDirection)
		}
		if p.ConfidenceScore != 0.3 {
			t.Errorf("case %d: confidence = %v, want 0.3", i, p.ConfidenceScore)
		}
		if p.Variance != 0 {
			t.Errorf("case %d: variance = %v, want 0", i, p.Variance)
		}
	}
}

func TestAnalyze_TenConsecutiveDays(t *testing.T) {
	p := Analyze(daily(epoch, repeat(1, 10)...))

	if !approxEqual(p.AverageDailyConsumption, 1.0) {
		t.Errorf("pace = %v, want 1.0", p.AverageDailyConsumption)
	}
	if p.TrendDirection != models.TrendStable {
		t.Errorf("trend = %v, want stable", p.TrendDirection)
	}
	if p.ConfidenceScore < 0.6 {
		t.Errorf("confidence = %v, want >= 0.6", p.ConfidenceScore)
	}
	if p.Variance != 0 {
		t.Errorf("variance = %v, want 0", p.Variance)
	}
	if p.SeasonalPattern != models.SeasonalNone {
		t.Errorf("seasonal = %v, want none", p.SeasonalPattern)
	}
}

func TestAnalyze_Trend(t *testing.T) {
	twoDays := []models.ConsumptionEvent{
		{Date: "2026-01-01", Quantity: 1},
		{Date: "2026-01-02", Quantity: 10},
		{Date: "2026-01-02", Quantity: 10},
	}

	tests := []struct {
		name   string
		events []models.ConsumptionEvent
		want   models.TrendDirection
	}{
		{"increasing", daily(epoch, 1, 2, 3, 4, 5), models.TrendIncreasing},
		{"decreasing", daily(epoch, 5, 4, 3, 2, 1), models.TrendDecreasing},
		{"below threshold", daily(epoch, 1, 1.05, 1.1), models.TrendStable},
		{"fewer than three days", twoDays, models.TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Analyze(tt.events).TrendDirection; got != tt.want {
				t.Errorf("trend = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnalyze_SampleVariance(t *testing.T) {
	p := Analyze(daily(epoch, 1, 2, 3))
	if !approxEqual(p.Variance, 1) {
		t.Errorf("variance = %v, want 1", p.Variance)
	}
}

func TestAnalyze_PaceFloorHolds(t *testing.T) {
	cases := [][]models.ConsumptionEvent{
		daily(epoch, 0, 0, 0),
		daily(epoch, 0.001, 0, 0.002, 0),
		{{Date: "2026-01-01", Quantity: 0}, {Date: "2026-01-01", Quantity: 0}, {Date: "2026-01-01", Quantity: 0}},
		daily(epoch, repeat(0.01, 40)...),
	}
	for i, events := range cases {
		if p := Analyze(events); p.AverageDailyConsumption < 0.1 {
			t.Errorf("case %d: pace %v below floor", i, p.AverageDailyConsumption)
		}
	}
}

func weekendHeavy(days int) []float64 {
	// 2026-01-05 is a Monday.
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	out := make([]float64, days)
	for i := range out {
		switch start.AddDate(0, 0, i).Weekday() {
		case time.Saturday, time.Sunday:
			out[i] = 5
		default:
			out[i] = 1
		}
	}
	return out
}

func TestAnalyze_Seasonality(t *testing.T) {
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	quarterly := make([]float64, 120)
	for i := range quarterly {
		if epoch.AddDate(0, 0, i).Month() <= time.February {
			quarterly[i] = 1
		} else {
			quarterly[i] = 3
		}
	}

	tests := []struct {
		name   string
		events []models.ConsumptionEvent
		want   models.SeasonalPattern
	}{
		{"weekly", daily(monday, weekendHeavy(35)...), models.SeasonalWeekly},
		{"needs more than 30 days", daily(monday, weekendHeavy(30)...), models.SeasonalNone},
		{"monthly", daily(epoch, quarterly...), models.SeasonalMonthly},
		{"flat", daily(epoch, repeat(2, 100)...), models.SeasonalNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Analyze(tt.events).SeasonalPattern; got != tt.want {
				t.Errorf("seasonal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		count, span int
		want        float64
	}{
		{0, 0, 0.3},
		{2, 100, 0.4},
		{5, -1, 0.6},
		{9, 30, 0.6},
		{10, 31, 0.85},
		{29, 30, 0.8},
		{30, 91, 1.0},
		{100, 400, 1.0},
		{100, -1, 0.9},
	}
	for _, tt := range tests {
		got := Confidence(tt.count, tt.span)
		if !approxEqual(got, tt.want) {
			t.Errorf("Confidence(%d, %d) = %v, want %v", tt.count, tt.span, got, tt.want)
		}
		if got < 0 || got > 1 {
			t.Errorf("Confidence(%d, %d) = %v out of [0,1]", tt.count, tt.span, got)
		}
	}
}

func TestForecast(t *testing.T) {
	pattern := models.ConsumptionPattern{
		AverageDailyConsumption: 2,
		Variance:                4,
		TrendDirection:          models.TrendStable,
		ConfidenceScore:         0.8,
	}

	tests := []struct {
		name               string
		trend              models.TrendDirection
		variance           float64
		want, lower, upper float64
	}{
		{"stable", models.TrendStable, 4, 18, 12, 24},
		{"increasing", models.TrendIncreasing, 4, 19.8, 13.8, 25.8},
		{"decreasing", models.TrendDecreasing, 4, 16.2, 10.2, 22.2},
		{"lower bound floored", models.TrendStable, 400, 18, 0, 78},
		{"no variance", models.TrendStable, 0, 18, 18, 18},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pattern
			p.TrendDirection = tt.trend
			p.Variance = tt.variance

			got := Forecast(p, 9)
			if !approxEqual(got.PredictedTotal, tt.want) {
				t.Errorf("PredictedTotal = %v, want %v", got.PredictedTotal, tt.want)
			}
			if !approxEqual(got.LowerBound, tt.lower) {
				t.Errorf("LowerBound = %v, want %v", got.LowerBound, tt.lower)
			}
			if !approxEqual(got.UpperBound, tt.upper) {
				t.Errorf("UpperBound = %v, want %v", got.UpperBound, tt.upper)
			}
			if got.ConfidenceScore != 0.8 || got.TrendDirection != tt.trend {
				t.Errorf("passthrough fields = %v/%v", got.ConfidenceScore, got.TrendDirection)
			}
		})
	}
}

func TestForecast_Degenerate(t *testing.T) {
	tests := []struct {
		name    string
		pattern models.ConsumptionPattern
	}{
		{"nan pace", models.ConsumptionPattern{AverageDailyConsumption: math.NaN(), TrendDirection: models.TrendIncreasing}},
		{"infinite variance", models.ConsumptionPattern{AverageDailyConsumption: 1, Variance: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Forecast(tt.pattern, 10)
			want := models.ForecastResult{
				DaysAhead:       10,
				PredictedTotal:  10,
				LowerBound:      5,
				UpperBound:      15,
				ConfidenceScore: 0.3,
				TrendDirection:  models.TrendStable,
			}
			if got != want {
				t.Errorf("Forecast() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestBand(t *testing.T) {
	pattern := models.ConsumptionPattern{AverageDailyConsumption: 1.5, Variance: 1, TrendDirection: models.TrendStable}
	predicted, lower, upper := Band(pattern, 14)

	if len(predicted) != 14 || len(lower) != 14 || len(upper) != 14 {
		t.Fatalf("band lengths = %d/%d/%d, want 14", len(predicted), len(lower), len(upper))
	}
	last := Forecast(pattern, 14)
	if !approxEqual(predicted[13], last.PredictedTotal) || !approxEqual(upper[13], last.UpperBound) {
		t.Errorf("band end = %v/%v, want %v/%v", predicted[13], upper[13], last.PredictedTotal, last.UpperBound)
	}
	for i := range predicted {
		if lower[i] > predicted[i] || predicted[i] > upper[i] {
			t.Errorf("day %d band out of order: %v %v %v", i+1, lower[i], predicted[i], upper[i])
		}
	}
}

func TestOptions(t *testing.T) {
	a := New(WithMinDataPoints(5), WithTrendThreshold(2), WithSeasonalityRatios(0, 0.5))
	cfg := a.Config()
	if cfg.MinDataPoints != 5 || cfg.TrendThreshold != 2 {
		t.Errorf("Config() = %+v", cfg)
	}
	if cfg.WeeklyRatio != defaultWeeklyRatio || cfg.MonthlyRatio != 0.5 {
		t.Errorf("ratios = %v/%v", cfg.WeeklyRatio, cfg.MonthlyRatio)
	}

	if p := a.Analyze(daily(epoch, 1, 2, 3, 4)); p.Policy != models.PolicyDefaultInsufficient {
		t.Errorf("four events with min 5 should be insufficient, got %v", p.Policy)
	}
	if p := a.Analyze(daily(epoch, 1, 2, 3, 4, 5)); p.TrendDirection != models.TrendStable {
		t.Errorf("slope 1 under threshold 2 should be stable, got %v", p.TrendDirection)
	}
}

func TestWeekdayProfile(t *testing.T) {
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	profile := WeekdayProfile(Normalize(daily(monday, weekendHeavy(14)...)))

	if len(profile) != 7 {
		t.Fatalf("len(profile) = %d, want 7", len(profile))
	}
	if profile[0].DayName != "Sunday" || profile[0].AvgConsumed != 5 || profile[0].Occurrences != 2 {
		t.Errorf("Sunday = %+v", profile[0])
	}
	if profile[1].DayName != "Monday" || profile[1].AvgConsumed != 1 {
		t.Errorf("Monday = %+v", profile[1])
	}
}
