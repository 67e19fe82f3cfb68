package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/antoniwrobel/sprzet/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// storeError maps a store error kind to an HTTP response. Invariant
// violations are bug signals: the transaction already rolled back, so
// log loudly and answer 500.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrUnauthorized):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrValidation):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrInvariant):
		slog.Error("inventory invariant violation", "error", err)
		jsonError(w, http.StatusInternalServerError, "inventory state conflict")
	default:
		slog.Error("store operation failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
