package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"onefine/internal/model"

	"github.com/rs/zerolog"
)

var statusByCode = map[string]int{
	model.ErrCodeValidation:         http.StatusBadRequest,
	model.ErrCodeInvalidJSON:        http.StatusBadRequest,
	model.ErrCodeNoFileProvided:     http.StatusBadRequest,
	model.ErrCodeUnauthorised:       http.StatusUnauthorized,
	model.ErrCodeNotFound:           http.StatusNotFound,
	model.ErrCodeRateLimited:        http.StatusTooManyRequests,
	model.ErrCodeStorageUnavailable: http.StatusInternalServerError,
	model.ErrCodeInternalError:      http.StatusInternalServerError,
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing useful left to tell the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("error", message).Str("code", code).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: message, Code: code})
}

// writeDomainError maps err to a status code. Errors that are not domain
// errors are reported as an opaque internal error.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Msg("unexpected error")
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
		return
	}

	status, ok := statusByCode[de.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	}

	writeError(w, status, de.Code, de.Message, logger)
}

// decodeJSON decodes the request body into dst, writing INVALID_JSON on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, logger zerolog.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}
