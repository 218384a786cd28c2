package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"thangd/errs"
)

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

type M map[string]interface{}

// RespondWithAppError writes a categorical error with its mapped status;
// anything uncategorized is a datastore/transport fault and surfaces as 500.
func RespondWithAppError(w http.ResponseWriter, err error) {
	var e *errs.Error
	if errors.As(err, &e) {
		RespondWithJSON(w, errs.HTTPStatus(e.Code), M{"code": e.Code, "message": e.Message})
		return
	}
	log.Printf("internal error: %v", err)
	RespondWithError(w, http.StatusInternalServerError, "internal error")
}
