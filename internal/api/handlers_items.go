package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/j-veylop/stockpace/internal/models"
)

type consumptionRequest struct {
	Quantity float64 `json:"quantity" validate:"finite,gt=0"`
	Note     string  `json:"note,omitempty" validate:"max=200"`
}

type restockRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

// ListItems handles GET /api/v1/items.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, s.backend.Items())
}

// CreateItem handles POST /api/v1/items.
func (s *Server) CreateItem(w http.ResponseWriter, r *http.Request) {
	var item models.Item
	if !decodeJSON(w, r, &item) {
		return
	}

	added, err := s.backend.AddItem(item)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, &Response{Status: "success", Data: added, Metadata: metadata(r)})
}

// UpdateItem handles PUT /api/v1/items/{id}. The path ID wins over any ID
// in the body.
func (s *Server) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var item models.Item
	if !decodeJSON(w, r, &item) {
		return
	}
	item.ID = chi.URLParam(r, "id")

	if err := s.backend.UpdateItem(item); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, r, item)
}

// DeleteItem handles DELETE /api/v1/items/{id}.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.DeleteItem(chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, r, map[string]string{"message": "Item deleted"})
}

// ItemAdvice handles GET /api/v1/items/{id}/advice.
func (s *Server) ItemAdvice(w http.ResponseWriter, r *http.Request) {
	advice, err := s.backend.ItemAdvice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, r, advice)
}

// ItemHistory handles GET /api/v1/items/{id}/history?days=7|30|90|0.
func (s *Server) ItemHistory(w http.ResponseWriter, r *http.Request) {
	tr, ok := parseTimeRange(r.URL.Query().Get("days"))
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "days must be one of 7, 30, 90 or 0", nil)
		return
	}

	history, err := s.backend.ItemHistory(r.Context(), chi.URLParam(r, "id"), tr)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, r, history)
}

// RecordConsumption handles POST /api/v1/items/{id}/consumption.
func (s *Server) RecordConsumption(w http.ResponseWriter, r *http.Request) {
	var req consumptionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := s.backend.RecordConsumption(chi.URLParam(r, "id"), req.Quantity, req.Note); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, r, map[string]string{"message": "Consumption recorded"})
}

// Restock handles POST /api/v1/items/{id}/restock.
func (s *Server) Restock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := s.backend.Restock(chi.URLParam(r, "id"), req.Quantity); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, r, map[string]string{"message": "Item restocked"})
}

// ListRecommendations handles GET /api/v1/recommendations?active=true.
func (s *Server) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	activeOnly := true
	if v := r.URL.Query().Get("active"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "active must be a boolean", nil)
			return
		}
		activeOnly = parsed
	}

	recs, err := s.backend.Recommendations(r.Context(), activeOnly)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, r, recs)
}

// GetRecommendation handles GET /api/v1/recommendations/{id}.
func (s *Server) GetRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := recommendationID(w, r)
	if !ok {
		return
	}
	rec, err := s.backend.Recommendation(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, r, rec)
}

// RecommendationSummary handles GET /api/v1/recommendations/summary.
func (s *Server) RecommendationSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.backend.RecommendationSummary(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, r, summary)
}

// AcknowledgeRecommendation handles PUT /api/v1/recommendations/{id}/acknowledge.
func (s *Server) AcknowledgeRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := recommendationID(w, r)
	if !ok {
		return
	}
	if err := s.backend.AcknowledgeRecommendation(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, r, map[string]string{"message": "Recommendation acknowledged"})
}

// DismissRecommendation handles DELETE /api/v1/recommendations/{id}.
func (s *Server) DismissRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := recommendationID(w, r)
	if !ok {
		return
	}
	if err := s.backend.DismissRecommendation(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, r, map[string]string{"message": "Recommendation dismissed"})
}

// ListNotifications handles GET /api/v1/notifications?unread=true.
func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := false
	if v := r.URL.Query().Get("unread"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "unread must be a boolean", nil)
			return
		}
		unreadOnly = parsed
	}

	notes, err := s.backend.Notifications(r.Context(), unreadOnly)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, r, notes)
}

// MarkNotificationRead handles PUT /api/v1/notifications/{id}/read.
func (s *Server) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.MarkNotificationRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, r, map[string]string{"message": "Notification marked read"})
}

// MarkAllNotificationsRead handles POST /api/v1/notifications/read-all.
func (s *Server) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.MarkAllNotificationsRead(r.Context()); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, r, map[string]string{"message": "All notifications marked read"})
}

func recommendationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid recommendation ID", nil)
		return 0, false
	}
	return id, true
}

func parseTimeRange(days string) (models.TimeRange, bool) {
	switch days {
	case "", "30":
		return models.TimeRange30Days, true
	case "7":
		return models.TimeRange7Days, true
	case "90":
		return models.TimeRange90Days, true
	case "0", "all":
		return models.TimeRangeAllTime, true
	default:
		return 0, false
	}
}
