package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/j-veylop/stockpace/internal/db"
	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/services/pantry"
	"github.com/j-veylop/stockpace/internal/validation"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Error codes for API responses
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeValidation    = validation.Code
)

// Response is the envelope of every API response.
type Response struct {
	Status   string    `json:"status"`
	Data     any       `json:"data,omitempty"`
	Error    *APIError `json:"error,omitempty"`
	Metadata Metadata  `json:"metadata"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []validation.FieldError `json:"details,omitempty"`
}

// Metadata carries response bookkeeping.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

func metadata(r *http.Request) Metadata {
	return Metadata{
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetReqID(r.Context()),
	}
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *Response) {
	data, err := json.Marshal(response)
	if err != nil {
		logger.Error("failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logger.Error("failed to write JSON response", "error", err)
	}
}

func respondOK(w http.ResponseWriter, r *http.Request, data any) {
	respondJSON(w, http.StatusOK, &Response{Status: "success", Data: data, Metadata: metadata(r)})
}

// respondError sends an error response. err is logged, never returned to
// the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logger.Error("API error", "code", code, "path", r.URL.Path, "error", err)
	}
	respondJSON(w, status, &Response{
		Status:   "error",
		Error:    &APIError{Code: code, Message: message},
		Metadata: metadata(r),
	})
}

func respondValidation(w http.ResponseWriter, r *http.Request, verr *validation.Error) {
	respondJSON(w, http.StatusBadRequest, &Response{
		Status: "error",
		Error: &APIError{
			Code:    ErrCodeValidation,
			Message: verr.Error(),
			Details: verr.Fields,
		},
		Metadata: metadata(r),
	})
}

// respondServiceError maps service errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		respondValidation(w, r, verr)
	case errors.Is(err, pantry.ErrItemNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Item not found", nil)
	case errors.Is(err, db.ErrRecommendationNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Recommendation not found", nil)
	case errors.Is(err, db.ErrNotificationNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Notification not found", nil)
	case errors.Is(err, pantry.ErrInvalidItem):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", err)
	}
}

// decodeJSON reads a JSON body into dst. It writes the error response
// itself and reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Request body too large or unreadable", nil)
		return false
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Request body is required", nil)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("Invalid JSON: %v", err), nil)
		return false
	}
	return true
}

// validateRequest validates v with its struct tags, writing a 400
// response on failure.
func validateRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	err := validation.Struct(v)
	if err == nil {
		return true
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		respondValidation(w, r, verr)
	} else {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
	}
	return false
}

// decodeAndValidate decodes a JSON object into the struct pointed to by dst
// and validates it.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeJSON(w, r, dst) && validateRequest(w, r, dst)
}
