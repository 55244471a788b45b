// Package analysis turns raw consumption events into a pace estimate,
// a statistical consumption pattern and a forward forecast.
//
// Every operation is a pure computation: no I/O, no shared mutable state.
// Failures never surface as errors; callers receive documented fallback
// values with a low confidence score instead.
package analysis

import (
	"github.com/j-veylop/stockpace/internal/models"
)

const (
	defaultMinDataPoints   = 3
	defaultTrendThreshold  = 0.1
	defaultSeasonalMinDays = 30
	defaultMonthlyMinDays  = 90
	defaultWeeklyRatio     = 0.3
	defaultMonthlyRatio    = 0.2
	defaultPace            = 1.0
	minPace                = 0.1
	insufficientConfidence = 0.3
	trendAdjustment        = 0.1
)

// Config holds the analysis constants. It is copied into an Analyzer and
// never modified afterwards.
type Config struct {
	MinDataPoints   int
	TrendThreshold  float64
	SeasonalMinDays int
	MonthlyMinDays  int
	WeeklyRatio     float64
	MonthlyRatio    float64
}

// DefaultConfig returns the standard analysis constants.
func DefaultConfig() Config {
	return Config{
		MinDataPoints:   defaultMinDataPoints,
		TrendThreshold:  defaultTrendThreshold,
		SeasonalMinDays: defaultSeasonalMinDays,
		MonthlyMinDays:  defaultMonthlyMinDays,
		WeeklyRatio:     defaultWeeklyRatio,
		MonthlyRatio:    defaultMonthlyRatio,
	}
}

// Option customizes an Analyzer.
type Option func(*Config)

// WithMinDataPoints sets the minimum number of usable events.
func WithMinDataPoints(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MinDataPoints = n
		}
	}
}

// WithTrendThreshold sets the slope magnitude that counts as a trend.
func WithTrendThreshold(t float64) Option {
	return func(c *Config) {
		if t > 0 {
			c.TrendThreshold = t
		}
	}
}

// WithSeasonalityRatios sets the std/mean ratios for the weekly and monthly checks.
func WithSeasonalityRatios(weekly, monthly float64) Option {
	return func(c *Config) {
		if weekly > 0 {
			c.WeeklyRatio = weekly
		}
		if monthly > 0 {
			c.MonthlyRatio = monthly
		}
	}
}

// Analyzer runs the analysis operations with a fixed configuration.
// The zero value is not usable; construct with New.
type Analyzer struct {
	cfg Config
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Analyzer{cfg: cfg}
}

// Config returns a copy of the analyzer configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Insufficient reports whether the series has too few usable events.
func (a *Analyzer) Insufficient(series models.DailySeries) bool {
	return series.RawCount < a.cfg.MinDataPoints
}

// Analyze normalizes events and derives their consumption pattern.
func (a *Analyzer) Analyze(events []models.ConsumptionEvent) models.ConsumptionPattern {
	return a.AnalyzePattern(Normalize(events))
}

// Pace normalizes events and estimates their daily pace.
func (a *Analyzer) Pace(events []models.ConsumptionEvent) models.PaceEstimate {
	return a.EstimatePace(Normalize(events))
}

var standard = New()

// Analyze runs Analyzer.Analyze with the default configuration.
func Analyze(events []models.ConsumptionEvent) models.ConsumptionPattern {
	return standard.Analyze(events)
}

// EstimatePace runs Analyzer.Pace with the default configuration.
func EstimatePace(events []models.ConsumptionEvent) models.PaceEstimate {
	return standard.Pace(events)
}

// Forecast runs Analyzer.Forecast with the default configuration.
func Forecast(pattern models.ConsumptionPattern, daysAhead int) models.ForecastResult {
	return standard.Forecast(pattern, daysAhead)
}
