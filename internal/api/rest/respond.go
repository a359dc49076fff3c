package rest

import (
	"encoding/json"
	"net/http"

	"maktaba-backend/internal/domain"
	"maktaba-backend/internal/logger"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("failed to encode response", "error", err)
		}
	}
}

// writeError maps the domain error taxonomy onto HTTP status codes.
// Unexpected errors are logged with their cause and surfaced as a
// generic 500 so storage detail never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)

	var status int
	switch kind {
	case domain.ErrNotFound:
		status = http.StatusNotFound
	case domain.ErrConflict:
		status = http.StatusConflict
	case domain.ErrForbidden:
		status = http.StatusForbidden
	case domain.ErrValidation, domain.ErrInvalidState:
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
		logger.Error("request failed", "error", err)
	}

	writeJSON(w, status, errorBody{Error: string(kind), Message: domain.MessageOf(err)})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: message})
}
