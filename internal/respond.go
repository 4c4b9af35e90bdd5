package internal

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"asset-tracker/internal/store"
	"asset-tracker/internal/validation"
	"asset-tracker/pkg/apperr"
)

// Error codes written in the envelope.
const (
	codeNotFound        = "ASSET_NOT_FOUND"
	codeDuplicateSerial = "DUPLICATE_SERIAL_NUMBER"
	codeValidation      = "VALIDATION_ERROR"
	codeInternal        = "INTERNAL_SERVER_ERROR"
	codeUnavailable     = "SERVICE_UNAVAILABLE"
	codeNotFoundRoute   = "NOT_FOUND"
	codeMethod          = "METHOD_NOT_ALLOWED"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status == http.StatusNoContent || v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, apperr.NewEnvelope(code, message, details))
}

// writeValidation writes a 422 with one message per field.
func writeValidation(w http.ResponseWriter, message string, details map[string]string) {
	if len(details) == 0 {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, message, nil)
		return
	}
	writeError(w, http.StatusUnprocessableEntity, codeValidation, message, details)
}

// writeStoreError maps store and validation failures onto the envelope.
// Unexpected errors are logged and reported without their text.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	var dup *store.DuplicateSerialError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Asset not found", nil)
	case errors.As(err, &dup):
		writeError(w, http.StatusConflict, codeDuplicateSerial, dup.Error(),
			map[string]string{"serial_number": dup.SerialNumber})
	case errors.Is(err, store.ErrDuplicateSerial):
		writeError(w, http.StatusConflict, codeDuplicateSerial, err.Error(), nil)
	case errors.As(err, &verr):
		writeValidation(w, "Validation failed", verr.Details())
	default:
		s.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "An unexpected error occurred", nil)
	}
}
