package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"restaurant-match-backend/internal/catalog"
	"restaurant-match-backend/internal/services"
	"restaurant-match-backend/internal/tournament"
	"restaurant-match-backend/internal/validation"

	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondServiceError maps err to a status code. Server errors are logged and
// reported with the generic message only.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Fields: verr.Fields})
		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg(message)
		if status == http.StatusInternalServerError {
			respondError(w, message, status)
			return
		}
	}
	respondError(w, err.Error(), status)
}

func statusFor(err error) int {
	var statusErr *catalog.StatusError
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrSelfFriendship),
		errors.Is(err, tournament.ErrInvalidChoice):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrNoActiveTournament):
		return http.StatusNotFound
	case errors.Is(err, tournament.ErrInsufficientContenders),
		errors.Is(err, tournament.ErrSessionBusy),
		errors.Is(err, tournament.ErrFinished):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &statusErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into dst and validates it.
// An empty body is accepted when allowEmpty is set.
func decodeJSON(r *http.Request, dst interface{}, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return fmt.Errorf("%w: invalid request body", services.ErrInvalidInput)
		}
	}
	return validation.Struct(dst)
}
