package models

import "time"

// DataSource identifies how a market pace figure was obtained.
type DataSource string

const (
	SourceDirectMatch DataSource = "direct_match"
	SourceFuzzyMatch  DataSource = "fuzzy_match"
	SourceEstimated   DataSource = "estimated"
	SourceDefault     DataSource = "default"
	SourceUnavailable DataSource = "unavailable"
)

// MarketData is the typical consumption pace for an item across households.
type MarketData struct {
	ItemName                 string     `json:"item_name"`
	AverageConsumptionPerDay float64    `json:"average_consumption_per_day"`
	Category                 string     `json:"category"`
	Unit                     string     `json:"unit"`
	ConfidenceScore          float64    `json:"confidence_score"`
	DataSource               DataSource `json:"data_source"`
	SampleSize               int        `json:"sample_size"`
	LastUpdated              time.Time  `json:"last_updated"`
}

// Available reports whether the data carries a usable pace.
func (m *MarketData) Available() bool {
	return m != nil && m.AverageConsumptionPerDay > 0
}

// CategorySummary aggregates catalog entries of one category.
type CategorySummary struct {
	Category           string   `json:"category"`
	ItemsCount         int      `json:"items_count"`
	AverageConsumption float64  `json:"average_consumption"`
	Items              []string `json:"items"`
}
