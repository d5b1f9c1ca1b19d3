package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"homeledger/internal/limits"
	"homeledger/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the service error taxonomy onto HTTP
// statuses. Unknown errors stay opaque.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrEntityNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrAccessDenied):
		respondError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, services.ErrEntityAlreadyExists):
		respondError(w, http.StatusConflict, "already exists")
	case errors.Is(err, services.ErrConcurrencyConflict):
		respondError(w, http.StatusConflict, "concurrent update, try again")
	case errors.Is(err, services.ErrImmutableAccountID):
		respondError(w, http.StatusBadRequest, "transaction account cannot change")
	case errors.Is(err, services.ErrInvalidAccountKind):
		respondError(w, http.StatusBadRequest, "invalid account kind")
	case errors.Is(err, limits.ErrInvalidTransaction):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
