package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// MarketSearch handles GET /api/v1/market/search?item_name=.
func (s *Server) MarketSearch(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("item_name"))
	if name == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "item_name is required", nil)
		return
	}
	respondOK(w, r, s.market.Lookup(r.Context(), name))
}

// MarketCategories handles GET /api/v1/market/categories.
func (s *Server) MarketCategories(w http.ResponseWriter, r *http.Request) {
	categories := s.market.Categories()
	if categories == nil {
		categories = []string{}
	}
	respondOK(w, r, categories)
}

// MarketCategory handles GET /api/v1/market/categories/{category}.
func (s *Server) MarketCategory(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.market.CategorySummary(chi.URLParam(r, "category"))
	if !ok {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Market source has no categories", nil)
		return
	}
	respondOK(w, r, summary)
}
