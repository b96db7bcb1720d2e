package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/google/uuid"

	"companion/internal/domain/attendance"
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err)
	}
}

// noStore marks a response that reflects the live sheet or tally.
func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}

var validationErrors = []error{
	attendance.ErrNegativeCount,
	attendance.ErrInvalidSplit,
	attendance.ErrNegativePrice,
	attendance.ErrInvalidDate,
	attendance.ErrEmptyGuestName,
}

func isValidationError(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// writeOrchestratorError maps domain validation errors to 400 and a missing
// row to 404; anything else is a 500.
func writeOrchestratorError(w http.ResponseWriter, err error) {
	switch {
	case isValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, sql.ErrNoRows):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		internalError(w, err)
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
