package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const (
	statusError   = "error"
	statusSuccess = "success"
)

// ErrorResponse represents a standardized error response format.
type ErrorResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Kind    string   `json:"kind,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// SuccessResponse wraps a payload returned by a lookup endpoint.
type SuccessResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// WriteError writes a standardized JSON error response to the HTTP response writer.
// It sets the appropriate Content-Type header, status code, and encodes the error response.
func WriteError(w http.ResponseWriter, statusCode int, message string, errors []string, log *slog.Logger) {
	WriteErrorKind(w, statusCode, message, "", errors, log)
}

// WriteErrorKind is WriteError with the failure kind exposed to the client.
func WriteErrorKind(w http.ResponseWriter, statusCode int, message, kind string, errors []string, log *slog.Logger) {
	WriteJSON(w, statusCode, ErrorResponse{
		Status:  statusError,
		Message: message,
		Kind:    kind,
		Errors:  errors,
	}, log)
}

// WriteSuccess writes data inside the {"status":"success","data":...} envelope.
func WriteSuccess(w http.ResponseWriter, data any, log *slog.Logger) {
	WriteJSON(w, http.StatusOK, SuccessResponse{Status: statusSuccess, Data: data}, log)
}

// WriteJSON encodes v as the response body with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		// The status code has already been written
		if log != nil {
			log.Error("failed to encode response", "error", err)
		}
	}
}
