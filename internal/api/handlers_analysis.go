package api

import (
	"net/http"
	"time"

	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/services/analysis"
)

type eventsRequest struct {
	Events []models.ConsumptionEvent `json:"events" validate:"max=10000"`
}

type analyzeResponse struct {
	Pattern models.ConsumptionPattern `json:"pattern"`
	Pace    models.PaceEstimate       `json:"pace"`
	Weekday []models.WeekdayPattern   `json:"weekday_pattern"`
}

type forecastRequest struct {
	Events    []models.ConsumptionEvent  `json:"events" validate:"max=10000"`
	Pattern   *models.ConsumptionPattern `json:"pattern,omitempty"`
	DaysAhead int                        `json:"days_ahead" validate:"gte=1,lte=365"`
}

type healthResponse struct {
	Status  string    `json:"status"`
	Version string    `json:"version,omitempty"`
	Uptime  string    `json:"uptime"`
	Time    time.Time `json:"timestamp"`
	Pantry  bool      `json:"pantry_attached"`
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, healthResponse{
		Status:  "healthy",
		Version: s.version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Time:    time.Now().UTC(),
		Pantry:  s.backend != nil,
	})
}

// Analyze handles POST /api/v1/analyze.
// Returns the consumption pattern, pace estimate and weekday profile of
// the given events.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	var req eventsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	respondOK(w, r, analyzeResponse{
		Pattern: s.analyzer.Analyze(req.Events),
		Pace:    s.analyzer.Pace(req.Events),
		Weekday: analysis.WeekdayProfile(analysis.Normalize(req.Events)),
	})
}

// Pace handles POST /api/v1/pace.
func (s *Server) Pace(w http.ResponseWriter, r *http.Request) {
	var req eventsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	respondOK(w, r, s.analyzer.Pace(req.Events))
}

// Forecast handles POST /api/v1/forecast.
// A supplied pattern takes precedence over events. days_ahead defaults to
// the server's forecast horizon.
func (s *Server) Forecast(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DaysAhead == 0 {
		req.DaysAhead = s.forecastDays
	}
	if !validateRequest(w, r, &req) {
		return
	}
	if req.Pattern == nil && len(req.Events) == 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "events or pattern is required", nil)
		return
	}

	pattern := s.analyzer.Analyze(req.Events)
	if req.Pattern != nil {
		pattern = *req.Pattern
	}
	respondOK(w, r, s.analyzer.Forecast(pattern, req.DaysAhead))
}
