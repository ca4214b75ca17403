package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"studyhub-backend/internal/logger"
	"studyhub-backend/internal/service"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Error("failed to encode response", "error", err)
		}
	}
}

// writeError maps service errors onto HTTP statuses. Authorization and state
// errors are definitive outcomes; only storage unavailability and code
// exhaustion surface as 503.
func writeError(w http.ResponseWriter, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, service.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrUnauthorized):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrAlreadyRejected):
		status, code = http.StatusConflict, "already_rejected"
	case errors.Is(err, service.ErrInvalidState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, service.ErrCapacityExceeded):
		status, code = http.StatusConflict, "capacity_exceeded"
	case errors.Is(err, service.ErrUserExists):
		status, code = http.StatusConflict, "user_exists"
	case errors.Is(err, service.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, service.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, service.ErrCodeSpaceExhausted):
		status, code = http.StatusServiceUnavailable, "code_space_exhausted"
	case errors.Is(err, service.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "unavailable"
	default:
		logger.Error("unhandled error", "error", err)
		status, code = http.StatusInternalServerError, "internal"
	}
	writeJSON(w, status, errorResponse{Error: code, Message: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return false
	}
	return true
}
