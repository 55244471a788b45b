// Package market estimates typical household consumption paces by item name.
//
// Catalog is a deterministic lookup table with category-based estimation for
// unknown names. Provider wraps any PaceSource with caching and a circuit
// breaker so callers always get an answer.
package market

import (
	"cmp"
	"context"
	"hash/fnv"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/j-veylop/stockpace/internal/models"
)

const (
	directConfidence    = 0.8
	estimatedConfidence = 0.6
	defaultConfidence   = 0.4
	directSampleSize    = 1000
	estimatedSampleSize = 100
	defaultPace         = 0.05
	defaultUnit         = "pcs"
	fallbackCategory    = "staple_food"
)

type entry struct {
	pace     float64
	category string
	unit     string
}

var baseEntries = map[string]entry{
	"rice":         {0.15, "staple_food", "kg"},
	"bread":        {0.3, "staple_food", "pcs"},
	"milk":         {0.2, "dairy", "L"},
	"eggs":         {1.5, "protein", "pcs"},
	"meat":         {0.08, "protein", "kg"},
	"vegetables":   {0.3, "vegetables", "kg"},
	"toilet paper": {0.08, "hygiene", "rolls"},
	"shampoo":      {0.01, "hygiene", "ml"},
	"soap":         {0.02, "hygiene", "pcs"},
	"toothpaste":   {0.005, "hygiene", "g"},
	"detergent":    {0.03, "cleaning", "ml"},
	"tissues":      {3.0, "hygiene", "sheets"},
	"salt":         {0.01, "seasoning", "g"},
	"sugar":        {0.02, "seasoning", "g"},
	"soy sauce":    {0.015, "seasoning", "ml"},
	"miso":         {0.02, "seasoning", "g"},
	"oil":          {0.025, "seasoning", "ml"},
	"coffee":       {0.01, "beverage", "g"},
	"tea":          {0.005, "beverage", "g"},
	"juice":        {0.15, "beverage", "L"},
	"batteries":    {0.05, "electronics", "pcs"},
	"masks":        {1.2, "hygiene", "pcs"},
	"towels":       {0.02, "textile", "pcs"},
}

var categoryDefaults = map[string]float64{
	"staple_food": 0.2,
	"dairy":       0.15,
	"protein":     0.1,
	"vegetables":  0.25,
	"hygiene":     0.08,
	"cleaning":    0.03,
	"seasoning":   0.01,
	"beverage":    0.05,
	"electronics": 0.02,
	"textile":     0.01,
}

// categoryKeywords is checked in order; the first category with a keyword
// contained in the name wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"hygiene", []string{"shampoo", "soap", "toothpaste", "towel", "tissue", "mask"}},
	{"staple_food", []string{"rice", "bread", "meat", "fish", "vegetable", "fruit"}},
	{"cleaning", []string{"detergent", "bleach", "softener"}},
	{"seasoning", []string{"salt", "sugar", "soy", "miso", "oil", "vinegar"}},
}

// Catalog is an immutable market pace table.
type Catalog struct {
	entries map[string]entry
	// names sorted longest first so substring matching prefers specific names.
	names []string
	now   func() time.Time
}

// NewCatalog builds a catalog from the built-in table plus overrides.
// Override names are matched case-insensitively and replace built-in paces.
func NewCatalog(overrides map[string]float64) *Catalog {
	entries := make(map[string]entry, len(baseEntries)+len(overrides))
	for name, e := range baseEntries {
		entries[name] = e
	}
	for name, pace := range overrides {
		key := normalizeName(name)
		if key == "" || pace <= 0 {
			continue
		}
		e, ok := entries[key]
		if !ok {
			e = entry{category: EstimateCategory(key), unit: defaultUnit}
		}
		e.pace = pace
		entries[key] = e
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	return &Catalog{entries: entries, names: names, now: time.Now}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Lookup implements PaceSource. It only fails when ctx is done.
func (c *Catalog) Lookup(ctx context.Context, itemName string) (models.MarketData, error) {
	if err := ctx.Err(); err != nil {
		return models.MarketData{}, err
	}

	key := normalizeName(itemName)
	if key == "" {
		return c.format(itemName, entry{pace: defaultPace, category: fallbackCategory, unit: defaultUnit},
			models.SourceDefault, defaultConfidence, estimatedSampleSize), nil
	}

	if e, ok := c.entries[key]; ok {
		return c.format(itemName, e, models.SourceDirectMatch, directConfidence, directSampleSize), nil
	}

	for _, name := range c.names {
		if strings.Contains(key, name) || strings.Contains(name, key) {
			return c.format(itemName, c.entries[name], models.SourceFuzzyMatch, directConfidence, directSampleSize), nil
		}
	}

	category := EstimateCategory(key)
	e := entry{
		pace:     round4(categoryDefault(category) * variation(key)),
		category: category,
		unit:     defaultUnit,
	}
	return c.format(itemName, e, models.SourceEstimated, estimatedConfidence, estimatedSampleSize), nil
}

func (c *Catalog) format(itemName string, e entry, source models.DataSource, confidence float64, sample int) models.MarketData {
	return models.MarketData{
		ItemName:                 itemName,
		AverageConsumptionPerDay: e.pace,
		Category:                 e.category,
		Unit:                     e.unit,
		ConfidenceScore:          confidence,
		DataSource:               source,
		SampleSize:               sample,
		LastUpdated:              c.now(),
	}
}

// CategorySummary aggregates the catalog entries of a category. An unknown
// category reports no items and the category default pace.
func (c *Catalog) CategorySummary(category string) models.CategorySummary {
	category = strings.ToLower(strings.TrimSpace(category))
	summary := models.CategorySummary{Category: category, Items: []string{}}

	var total float64
	for name, e := range c.entries {
		if e.category == category {
			summary.Items = append(summary.Items, name)
			total += e.pace
		}
	}
	slices.Sort(summary.Items)
	summary.ItemsCount = len(summary.Items)

	if summary.ItemsCount == 0 {
		summary.AverageConsumption = categoryDefault(category)
		return summary
	}
	summary.AverageConsumption = round4(total / float64(summary.ItemsCount))
	return summary
}

// Categories returns the known category names in sorted order.
func (c *Catalog) Categories() []string {
	out := make([]string, 0, len(categoryDefaults))
	for name := range categoryDefaults {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// EstimateCategory guesses a category from keywords in the name.
func EstimateCategory(name string) string {
	name = strings.ToLower(name)
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(name, kw) {
				return group.category
			}
		}
	}
	return fallbackCategory
}

func categoryDefault(category string) float64 {
	if v, ok := categoryDefaults[category]; ok {
		return v
	}
	return defaultPace
}

// variation maps a name onto a stable factor in [0.7, 1.3].
func variation(name string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return 0.7 + 0.6*float64(h.Sum64()%10001)/10000
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
