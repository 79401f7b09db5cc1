package api

import (
	"encoding/json"
	"net/http"

	apperrors "parkit/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps a domain error to its HTTP status and a JSON body.
func writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		// Do not leak internals to clients.
		message = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}
