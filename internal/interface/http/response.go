package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/text/language"

	"github.com/academic-hub/student-records/internal/domain/shared"
	"github.com/academic-hub/student-records/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse represents a standard JSON response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      any           `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ResponseMeta contains response metadata.
type ResponseMeta struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version,omitempty"`
	TotalCount int       `json:"total_count,omitempty"`
	Locale     string    `json:"locale,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSONWithMeta(w, r, status, data, nil)
}

// writeJSONWithMeta writes a JSON response with custom metadata.
func writeJSONWithMeta(w http.ResponseWriter, r *http.Request, status int, data any, meta *ResponseMeta) {
	if meta == nil {
		meta = &ResponseMeta{}
	}
	meta.Timestamp = time.Now().UTC()
	meta.Version = "v1"
	if tag, ok := r.Context().Value(contextKeyLocale).(language.Tag); ok {
		meta.Locale = tag.String()
	}

	encode(w, status, JSONResponse{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Meta:      meta,
		RequestID: getRequestID(r.Context()),
	})
}

// writeJSONError writes an error JSON response.
func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSONErrorWithDetails(w, r, status, code, message, "")
}

// writeJSONErrorWithDetails writes an error JSON response with details.
func writeJSONErrorWithDetails(w http.ResponseWriter, r *http.Request, status int, code, message, details string) {
	encode(w, status, JSONResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta: &ResponseMeta{
			Timestamp: time.Now().UTC(),
		},
		RequestID: getRequestID(r.Context()),
	})
}

func encode(w http.ResponseWriter, status int, body JSONResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeServiceError maps a service error onto the HTTP status space:
// not found is 404, invalid input 400, duplicates 409, anything else 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *shared.DomainError
	message := err.Error()
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}

	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, r, http.StatusNotFound, "not_found", message)
	case shared.IsValidation(err):
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", message)
	case shared.IsAlreadyExists(err):
		writeJSONError(w, r, http.StatusConflict, "conflict", message)
	default:
		logger.FromContext(r.Context()).Error("request failed",
			logger.Err(err),
			logger.String("path", r.URL.Path),
		)
		writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
