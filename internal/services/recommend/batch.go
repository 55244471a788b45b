package recommend

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/validation"
)

const defaultBatchConcurrency = 8

// BatchItem is one item of a batch classification request.
type BatchItem struct {
	ID               string  `json:"id" validate:"required"`
	UserPace         float64 `json:"user_pace" validate:"finite,gte=0"`
	MarketPace       float64 `json:"market_pace" validate:"finite,gte=0"`
	CurrentQuantity  int     `json:"current_quantity" validate:"gte=0"`
	MinimumThreshold int     `json:"minimum_threshold" validate:"gte=0"`
	TargetStockLevel *int    `json:"target_stock_level,omitempty" validate:"omitempty,gt=0"`
}

// Input converts the item to classifier input.
func (b *BatchItem) Input() Input {
	return Input{
		UserPace:         b.UserPace,
		MarketPace:       b.MarketPace,
		CurrentQuantity:  b.CurrentQuantity,
		MinimumThreshold: b.MinimumThreshold,
		TargetStockLevel: b.TargetStockLevel,
	}
}

// BatchEntry is a successfully classified item.
type BatchEntry struct {
	ID     string                      `json:"id"`
	Result models.RecommendationResult `json:"recommendation"`
}

// SkippedItem is an item that could not be classified.
type SkippedItem struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BatchResult holds the classified subset in input order plus the skipped items.
type BatchResult struct {
	Results []BatchEntry  `json:"results"`
	Skipped []SkippedItem `json:"skipped"`
}

type batchConfig struct {
	concurrency int
}

// BatchOption customizes Batch.
type BatchOption func(*batchConfig)

// WithConcurrency bounds the number of items classified at once.
func WithConcurrency(n int) BatchOption {
	return func(c *batchConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

type outcome struct {
	entry  *BatchEntry
	reason string
}

// Batch classifies items independently. A malformed item or a failure while
// classifying one item skips only that item; the batch itself never fails.
// Items not started before ctx is done are skipped.
func Batch(ctx context.Context, items []BatchItem, opts ...BatchOption) BatchResult {
	cfg := batchConfig{concurrency: defaultBatchConcurrency}
	for _, opt := range opts {
		opt(&cfg)
	}

	outcomes := make([]outcome, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)

	for i := range items {
		g.Go(func() error {
			outcomes[i] = classifyOne(gctx, &items[i])
			return nil
		})
	}
	_ = g.Wait()

	res := BatchResult{
		Results: make([]BatchEntry, 0, len(items)),
		Skipped: []SkippedItem{},
	}
	for i, o := range outcomes {
		if o.entry != nil {
			res.Results = append(res.Results, *o.entry)
			continue
		}
		res.Skipped = append(res.Skipped, SkippedItem{Index: i, ID: items[i].ID, Reason: o.reason})
	}

	if len(res.Skipped) > 0 {
		logger.Warn("batch skipped items", "skipped", len(res.Skipped), "classified", len(res.Results))
	}
	return res
}

func classifyOne(ctx context.Context, item *BatchItem) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{reason: fmt.Sprintf("classification failed: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return outcome{reason: err.Error()}
	}
	if err := validation.Struct(item); err != nil {
		return outcome{reason: err.Error()}
	}

	return outcome{entry: &BatchEntry{ID: item.ID, Result: Recommend(item.Input())}}
}
