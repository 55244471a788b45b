package api

import (
	"fmt"
	"net/http"

	"github.com/j-veylop/stockpace/internal/metrics"
	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/services/recommend"
)

const maxBatchItems = 1000

type recommendRequest struct {
	UserPace         float64  `json:"user_pace" validate:"finite,gte=0"`
	MarketPace       *float64 `json:"market_pace,omitempty" validate:"omitempty,finite,gte=0"`
	ItemName         string   `json:"item_name,omitempty" validate:"max=100"`
	CurrentQuantity  int      `json:"current_quantity" validate:"gte=0"`
	MinimumThreshold int      `json:"minimum_threshold" validate:"gte=0"`
	TargetStockLevel *int     `json:"target_stock_level,omitempty" validate:"omitempty,gt=0"`
}

type recommendResponse struct {
	models.RecommendationResult
	DisplayMessage string             `json:"display_message,omitempty"`
	MarketPace     float64            `json:"market_pace"`
	Market         *models.MarketData `json:"market_data,omitempty"`
}

// Recommend handles POST /api/v1/recommend.
// Without market_pace, the pace is resolved from item_name when given.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp := recommendResponse{}
	switch {
	case req.MarketPace != nil:
		resp.MarketPace = *req.MarketPace
	case req.ItemName != "" && s.market != nil:
		data := s.market.Lookup(r.Context(), req.ItemName)
		resp.MarketPace = data.AverageConsumptionPerDay
		resp.Market = &data
	}

	resp.RecommendationResult = recommend.Recommend(recommend.Input{
		UserPace:         req.UserPace,
		MarketPace:       resp.MarketPace,
		CurrentQuantity:  req.CurrentQuantity,
		MinimumThreshold: req.MinimumThreshold,
		TargetStockLevel: req.TargetStockLevel,
	})
	if req.ItemName != "" {
		resp.DisplayMessage = recommend.Render(resp.Message, req.ItemName)
	}
	metrics.RecordRecommendation(resp.Urgency.String())

	respondOK(w, r, resp)
}

// RecommendBatch handles POST /api/v1/recommend/batch.
// Malformed items are skipped and listed with their index instead of
// failing the request.
func (s *Server) RecommendBatch(w http.ResponseWriter, r *http.Request) {
	var items []recommend.BatchItem
	if !decodeJSON(w, r, &items) {
		return
	}
	if len(items) > maxBatchItems {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation,
			fmt.Sprintf("batch exceeds %d items", maxBatchItems), nil)
		return
	}

	result := recommend.Batch(r.Context(), items)
	for _, entry := range result.Results {
		metrics.RecordRecommendation(entry.Result.Urgency.String())
	}
	metrics.BatchSkippedTotal.Add(float64(len(result.Skipped)))

	respondOK(w, r, result)
}
