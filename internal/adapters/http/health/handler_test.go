package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphealth "3tcapital/gstlens/internal/application/health"
	corehealth "3tcapital/gstlens/internal/core/health"
	"3tcapital/gstlens/internal/testutil"
)

func TestNewHandler(t *testing.T) {
	service := &apphealth.Service{}
	handler := NewHandler(service, testutil.NewTestLogger())

	if handler == nil {
		t.Fatal("expected handler to be created, got nil")
	}

	if handler.service != service {
		t.Error("expected handler to have the provided service")
	}
}

func TestHandler_Root(t *testing.T) {
	handler := NewHandler(apphealth.NewService(apphealth.Metadata{}), testutil.NewTestLogger())

	w := httptest.NewRecorder()
	handler.Root(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]string
	testutil.ReadJSONResponse(t, w, http.StatusOK, &body)
	if body["message"] != RootMessage {
		t.Errorf("expected message %q, got %q", RootMessage, body["message"])
	}
}

func TestHandler_Status(t *testing.T) {
	meta := apphealth.Metadata{
		Service:     "test-service",
		Version:     "1.0.0",
		Environment: "test",
	}

	tests := []struct {
		name           string
		checkers       []apphealth.Checker
		expectedStatus string
		expectedDeps   int
	}{
		{
			name:           "no dependencies",
			expectedStatus: "UP",
		},
		{
			name: "healthy dependency",
			checkers: []apphealth.Checker{
				{Name: "ledger", Check: func(ctx context.Context) error { return nil }},
			},
			expectedStatus: "UP",
			expectedDeps:   1,
		},
		{
			name: "failing dependency degrades",
			checkers: []apphealth.Checker{
				{Name: "ledger", Check: func(ctx context.Context) error { return nil }},
				{Name: "oracle", Check: func(ctx context.Context) error { return errors.New("circuit open") }},
			},
			expectedStatus: "DEGRADED",
			expectedDeps:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(apphealth.NewService(meta, tt.checkers...), testutil.NewTestLogger())

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()

			handler.Status(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("expected status code %d, got %d", http.StatusOK, w.Code)
			}

			contentType := w.Header().Get("Content-Type")
			if contentType != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", contentType)
			}

			var status corehealth.Status
			if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if status.Service != meta.Service {
				t.Errorf("expected service %q, got %q", meta.Service, status.Service)
			}
			if status.Status != tt.expectedStatus {
				t.Errorf("expected status %q, got %q", tt.expectedStatus, status.Status)
			}
			if len(status.Dependencies) != tt.expectedDeps {
				t.Errorf("expected %d dependencies, got %d", tt.expectedDeps, len(status.Dependencies))
			}
		})
	}
}
