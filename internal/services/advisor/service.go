// Package advisor runs the per-item forecasting and recommendation pipeline
// over pantry items and caches the latest advice.
package advisor

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/metrics"
	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/services/analysis"
	"github.com/j-veylop/stockpace/internal/services/recommend"
	"github.com/j-veylop/stockpace/internal/validation"
)

const (
	defaultForecastDays = 30
	spendDays           = 30
)

// ErrNotEvaluated is returned when an item has no cached advice.
var ErrNotEvaluated = errors.New("item has not been evaluated")

// MarketSource resolves market data for an item name. A zero pace means
// no market data.
type MarketSource interface {
	Lookup(ctx context.Context, itemName string) models.MarketData
}

// Report is the outcome of evaluating a set of items.
type Report struct {
	Advice  []models.ItemAdvice
	Skipped []recommend.SkippedItem
}

// Service evaluates items and caches advice per item ID.
type Service struct {
	mu           sync.RWMutex
	analyzer     *analysis.Analyzer
	market       MarketSource
	forecastDays int
	cache        map[string]*models.ItemAdvice
	skipped      []recommend.SkippedItem
	lastRun      time.Time
	now          func() time.Time
}

// New creates an advisor. A nil analyzer uses the default configuration.
func New(analyzer *analysis.Analyzer, market MarketSource, forecastDays int) *Service {
	if analyzer == nil {
		analyzer = analysis.New()
	}
	if forecastDays <= 0 {
		forecastDays = defaultForecastDays
	}
	return &Service{
		analyzer:     analyzer,
		market:       market,
		forecastDays: forecastDays,
		cache:        make(map[string]*models.ItemAdvice),
		now:          time.Now,
	}
}

// ForecastDays returns the configured forecast horizon.
func (s *Service) ForecastDays() int {
	return s.forecastDays
}

// prepared holds the pipeline inputs computed before classification.
type prepared struct {
	item    models.Item
	pattern models.ConsumptionPattern
	market  models.MarketData
}

func (s *Service) prepare(ctx context.Context, item models.Item) prepared {
	p := prepared{
		item:    item,
		pattern: s.analyzer.Analyze(item.Events),
	}
	if s.market != nil {
		p.market = s.market.Lookup(ctx, item.Name)
	}
	return p
}

func (p *prepared) batchItem() recommend.BatchItem {
	return recommend.BatchItem{
		ID:               p.item.ID,
		UserPace:         p.pattern.AverageDailyConsumption,
		MarketPace:       p.market.AverageConsumptionPerDay,
		CurrentQuantity:  p.item.CurrentQuantity,
		MinimumThreshold: p.item.MinimumThreshold,
		TargetStockLevel: p.item.TargetStockLevel,
	}
}

func (s *Service) compose(p *prepared, rec models.RecommendationResult, at time.Time) *models.ItemAdvice {
	advice := &models.ItemAdvice{
		Item:           p.item,
		Pattern:        p.pattern,
		Forecast:       s.analyzer.Forecast(p.pattern, s.forecastDays),
		Market:         p.market,
		Recommendation: rec,
		DisplayMessage: recommend.Render(rec.Message, p.item.Name),
		EvaluatedAt:    at,
	}
	if spend, ok := MonthlySpend(p.item.UnitPrice, p.pattern.AverageDailyConsumption); ok {
		advice.MonthlySpend = &spend
	}
	return advice
}

// Evaluate runs the pipeline for one item and caches the result.
func (s *Service) Evaluate(ctx context.Context, item models.Item) (models.ItemAdvice, error) {
	if err := validation.Struct(item); err != nil {
		return models.ItemAdvice{}, fmt.Errorf("failed to evaluate %q: %w", item.ID, err)
	}
	if err := ctx.Err(); err != nil {
		return models.ItemAdvice{}, err
	}

	p := s.prepare(ctx, item)
	bi := p.batchItem()
	rec := recommend.Recommend(bi.Input())
	advice := s.compose(&p, rec, s.now())
	metrics.RecordRecommendation(rec.Urgency.String())

	s.mu.Lock()
	s.cache[item.ID] = advice
	s.mu.Unlock()

	return *advice, nil
}

// EvaluateAll evaluates every item. Items that fail validation or
// classification are reported in Skipped with their index in items; the
// cache is replaced with the successful results.
func (s *Service) EvaluateAll(ctx context.Context, items []models.Item) Report {
	start := s.now()
	defer func() {
		metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	}()

	var (
		skipped  []recommend.SkippedItem
		ready    []prepared
		origIdx  []int
		batchIns []recommend.BatchItem
	)
	for i, item := range items {
		if err := validation.Struct(item); err != nil {
			skipped = append(skipped, recommend.SkippedItem{Index: i, ID: item.ID, Reason: err.Error()})
			continue
		}
		p := s.prepare(ctx, item)
		ready = append(ready, p)
		origIdx = append(origIdx, i)
		batchIns = append(batchIns, p.batchItem())
	}

	batch := recommend.Batch(ctx, batchIns)
	results := make(map[string]models.RecommendationResult, len(batch.Results))
	for _, entry := range batch.Results {
		results[entry.ID] = entry.Result
	}
	for _, sk := range batch.Skipped {
		sk.Index = origIdx[sk.Index]
		skipped = append(skipped, sk)
	}
	slices.SortFunc(skipped, func(a, b recommend.SkippedItem) int {
		return cmp.Compare(a.Index, b.Index)
	})

	at := s.now()
	report := Report{
		Advice:  make([]models.ItemAdvice, 0, len(results)),
		Skipped: skipped,
	}
	cache := make(map[string]*models.ItemAdvice, len(results))
	for i := range ready {
		rec, ok := results[ready[i].item.ID]
		if !ok {
			continue
		}
		advice := s.compose(&ready[i], rec, at)
		cache[advice.Item.ID] = advice
		report.Advice = append(report.Advice, *advice)
		metrics.RecordRecommendation(rec.Urgency.String())
	}
	if report.Skipped == nil {
		report.Skipped = []recommend.SkippedItem{}
	}
	metrics.BatchSkippedTotal.Add(float64(len(skipped)))

	s.mu.Lock()
	s.cache = cache
	s.skipped = report.Skipped
	s.lastRun = at
	s.mu.Unlock()

	logger.Debug("pantry evaluated", "items", len(items), "advice", len(report.Advice), "skipped", len(skipped))
	return report
}

// Cached returns the last advice for an item.
func (s *Service) Cached(itemID string) (models.ItemAdvice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	advice, ok := s.cache[itemID]
	if !ok {
		return models.ItemAdvice{}, fmt.Errorf("%w: %s", ErrNotEvaluated, itemID)
	}
	return *advice, nil
}

// All returns every cached advice, most urgent first, then fewest days left,
// then by name.
func (s *Service) All() []models.ItemAdvice {
	s.mu.RLock()
	out := make([]models.ItemAdvice, 0, len(s.cache))
	for _, a := range s.cache {
		out = append(out, *a)
	}
	s.mu.RUnlock()

	SortByUrgency(out)
	return out
}

// SortByUrgency orders advice most urgent first.
func SortByUrgency(advice []models.ItemAdvice) {
	slices.SortFunc(advice, func(a, b models.ItemAdvice) int {
		if c := cmp.Compare(b.Recommendation.Urgency, a.Recommendation.Urgency); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Recommendation.EstimatedDaysRemaining, b.Recommendation.EstimatedDaysRemaining); c != 0 {
			return c
		}
		return cmp.Compare(a.Item.Name, b.Item.Name)
	})
}

// Forget drops cached advice for an item.
func (s *Service) Forget(itemID string) {
	s.mu.Lock()
	delete(s.cache, itemID)
	s.mu.Unlock()
}

// Stats summarizes the cached evaluation. Alert and market counters are
// left for the caller to fill.
func (s *Service) Stats(totalItems int) models.PantryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.PantryStats{
		TotalItems:     totalItems,
		EvaluatedItems: len(s.cache),
		SkippedItems:   len(s.skipped),
		MonthlySpend:   decimal.Zero,
		LastEvaluation: s.lastRun,
	}
	for _, a := range s.cache {
		switch a.Recommendation.Urgency {
		case models.UrgencyCritical:
			stats.CriticalItems++
		case models.UrgencyHigh:
			stats.HighItems++
		case models.UrgencyMedium:
			stats.MediumItems++
		case models.UrgencyLow:
			stats.LowItems++
		}
		if a.MonthlySpend != nil {
			stats.MonthlySpend = stats.MonthlySpend.Add(*a.MonthlySpend)
		}
	}
	return stats
}

// MonthlySpend estimates spend over 30 days at the given pace, rounded to
// cents. It reports false when no usable unit price is known.
func MonthlySpend(unitPrice *float64, pace float64) (decimal.Decimal, bool) {
	if unitPrice == nil || !usable(*unitPrice) || !usable(pace) {
		return decimal.Zero, false
	}
	spend := decimal.NewFromFloat(*unitPrice).
		Mul(decimal.NewFromFloat(pace)).
		Mul(decimal.NewFromInt(spendDays)).
		Round(2)
	return spend, true
}

func usable(f float64) bool {
	return f >= 0 && !math.IsInf(f, 0)
}
