package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"3tcapital/gstlens/internal/testutil"
)

// failingResponseWriter is a ResponseWriter that can simulate write failures
type failingResponseWriter struct {
	http.ResponseWriter
	failOnWrite bool
}

func (f *failingResponseWriter) Write(p []byte) (int, error) {
	if f.failOnWrite {
		return 0, &json.MarshalerError{}
	}
	return f.ResponseWriter.Write(p)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name           string
		statusCode     int
		message        string
		errors         []string
		withLogger     bool
		expectedStatus int
		expectedBody   ErrorResponse
	}{
		{
			name:           "valid error response",
			statusCode:     http.StatusBadRequest,
			message:        "Invalid GSTIN",
			errors:         []string{"gstin must be 15 characters"},
			withLogger:     true,
			expectedStatus: http.StatusBadRequest,
			expectedBody: ErrorResponse{
				Status:  "error",
				Message: "Invalid GSTIN",
				Errors:  []string{"gstin must be 15 characters"},
			},
		},
		{
			name:           "multiple errors",
			statusCode:     http.StatusUnprocessableEntity,
			message:        "Extraction failed",
			errors:         []string{"Error 1", "Error 2", "Error 3"},
			withLogger:     false,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody: ErrorResponse{
				Status:  "error",
				Message: "Extraction failed",
				Errors:  []string{"Error 1", "Error 2", "Error 3"},
			},
		},
		{
			name:           "no errors",
			statusCode:     http.StatusInternalServerError,
			message:        "Internal error",
			errors:         nil,
			withLogger:     true,
			expectedStatus: http.StatusInternalServerError,
			expectedBody: ErrorResponse{
				Status:  "error",
				Message: "Internal error",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			var logger *slog.Logger
			if tt.withLogger {
				logger = testutil.NewTestLogger()
			}

			WriteError(w, tt.statusCode, tt.message, tt.errors, logger)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status code %d, got %d", tt.expectedStatus, w.Code)
			}

			contentType := w.Header().Get("Content-Type")
			if contentType != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", contentType)
			}

			var response ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if response.Status != tt.expectedBody.Status {
				t.Errorf("expected status %q, got %q", tt.expectedBody.Status, response.Status)
			}

			if response.Message != tt.expectedBody.Message {
				t.Errorf("expected message %q, got %q", tt.expectedBody.Message, response.Message)
			}

			if len(response.Errors) != len(tt.expectedBody.Errors) {
				t.Errorf("expected %d errors, got %d", len(tt.expectedBody.Errors), len(response.Errors))
			}

			for i, expectedErr := range tt.expectedBody.Errors {
				if i < len(response.Errors) && response.Errors[i] != expectedErr {
					t.Errorf("expected error[%d] %q, got %q", i, expectedErr, response.Errors[i])
				}
			}
		})
	}
}

func TestWriteErrorKind(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorKind(w, http.StatusPaymentRequired, "Insufficient credits", "insufficient_credit", nil, nil)

	if w.Code != http.StatusPaymentRequired {
		t.Errorf("expected status code %d, got %d", http.StatusPaymentRequired, w.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["kind"] != "insufficient_credit" {
		t.Errorf("expected kind insufficient_credit, got %v", response["kind"])
	}
	if _, ok := response["errors"]; ok {
		t.Error("expected errors to be omitted when empty")
	}
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"gstin": "29ABCDE1234F1Z5"}, testutil.NewTestLogger())

	if w.Code != http.StatusOK {
		t.Errorf("expected status code %d, got %d", http.StatusOK, w.Code)
	}

	var response struct {
		Status string            `json:"status"`
		Data   map[string]string `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "success" {
		t.Errorf("expected status success, got %q", response.Status)
	}
	if response.Data["gstin"] != "29ABCDE1234F1Z5" {
		t.Errorf("expected gstin in data, got %v", response.Data)
	}
}

func TestWriteError_WithNilLogger(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusBadRequest, "Test", []string{"Error"}, nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status code %d, got %d", http.StatusBadRequest, w.Code)
	}
}

// The error is logged but the function completes.
func TestWriteError_JSONEncodingError(t *testing.T) {
	w := &failingResponseWriter{
		ResponseWriter: httptest.NewRecorder(),
		failOnWrite:    true,
	}

	logger := testutil.NewTestLogger()
	WriteError(w, http.StatusBadRequest, "Test", []string{"Error"}, logger)
}
