package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"adreset/internal/ad"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"status":  status,
		"message": message,
	})
}

// writeError maps the error taxonomy onto HTTP statuses. Validation and
// authentication errors carry user-safe messages; anything else is
// reported generically and the detail stays in the log.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *ad.ValidationError
	var authErr *ad.AuthError
	var adErr *ad.ADError
	var configErr *ad.ConfigurationError

	switch {
	case errors.As(err, &validationErr):
		writeMessage(w, http.StatusBadRequest, validationErr.Msg)
	case errors.As(err, &authErr):
		writeMessage(w, http.StatusUnauthorized, authErr.Msg)
	case errors.As(err, &adErr):
		writeMessage(w, http.StatusInternalServerError, adErr.Msg)
	case errors.As(err, &configErr):
		writeMessage(w, http.StatusInternalServerError, configErr.Msg)
	default:
		log.Printf("handler: unexpected error: %v", err)
		writeMessage(w, http.StatusInternalServerError,
			"An unknown issue was encountered. Please contact the administrator for help.")
	}
}

// parseBool mirrors the query-parameter boolean convention: 1/true and
// 0/false, with nil for anything else.
func parseBool(candidate string) *bool {
	var v bool
	switch candidate {
	case "1", "true", "True":
		v = true
	case "0", "false", "False":
		v = false
	default:
		return nil
	}
	return &v
}
