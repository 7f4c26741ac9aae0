package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"3tcapital/gstlens/internal/core/identity"
	"3tcapital/gstlens/internal/infrastructure/config"
	ctxutil "3tcapital/gstlens/internal/infrastructure/context"
	"3tcapital/gstlens/internal/infrastructure/http/middleware"
	"3tcapital/gstlens/internal/testutil"
)

func testConfig() config.AppConfig {
	return config.AppConfig{
		HTTP: config.HTTPSettings{
			Port:               8080,
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       10 * time.Second,
			UploadTimeout:      time.Minute,
			IdleTimeout:        120 * time.Second,
			ShutdownTimeout:    time.Second,
			CORSAllowedOrigins: []string{"https://app.example.com"},
		},
	}
}

// denyAll rejects every request that reaches a protected route.
func denyAll(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
}

func asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(ctxutil.WithUser(r.Context(), identity.User{ID: "user-1"})))
	})
}

func okHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		opts        Options
		expectedErr string
	}{
		{
			name:        "nil logger",
			opts:        Options{Config: testConfig(), Auth: asUser, Handlers: Handlers{Health: okHandler("")}},
			expectedErr: "logger is required",
		},
		{
			name:        "nil health handler",
			opts:        Options{Config: testConfig(), Logger: testutil.NewTestLogger(), Auth: asUser},
			expectedErr: "health handler is required",
		},
		{
			name:        "nil auth",
			opts:        Options{Config: testConfig(), Logger: testutil.NewTestLogger(), Handlers: Handlers{Health: okHandler("")}},
			expectedErr: "auth middleware is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if err.Error() != tt.expectedErr {
				t.Errorf("expected error %q, got %q", tt.expectedErr, err.Error())
			}
		})
	}
}

func TestNew_ValidOptions(t *testing.T) {
	server, err := New(Options{
		Config:   testConfig(),
		Logger:   testutil.NewTestLogger(),
		Auth:     asUser,
		Handlers: Handlers{Health: okHandler("")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.httpServer.Addr != ":8080" {
		t.Errorf("expected address ':8080', got %q", server.httpServer.Addr)
	}
	if server.httpServer.WriteTimeout != 10*time.Second {
		t.Errorf("expected write timeout 10s, got %v", server.httpServer.WriteTimeout)
	}
}

func TestServer_Routes(t *testing.T) {
	handlers := Handlers{
		Root:    okHandler("root"),
		Health:  okHandler("health"),
		Upload:  okHandler("upload"),
		GSTInfo: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(chi.URLParam(r, "gstin"))) },
		Login:   okHandler("login"),
		Credits: okHandler("credits"),
		History: okHandler("history"),
	}

	tests := []struct {
		name           string
		auth           func(http.Handler) http.Handler
		method         string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{name: "root is public", auth: denyAll, method: http.MethodGet, path: "/", expectedStatus: http.StatusOK, expectedBody: "root"},
		{name: "health is public", auth: denyAll, method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK, expectedBody: "health"},
		{name: "upload is protected", auth: denyAll, method: http.MethodPost, path: "/upload", expectedStatus: http.StatusUnauthorized},
		{name: "gstinfo is public", auth: denyAll, method: http.MethodGet, path: "/gstinfo/29ABCDE1234F1Z5", expectedStatus: http.StatusOK, expectedBody: "29ABCDE1234F1Z5"},
		{name: "history is protected", auth: denyAll, method: http.MethodGet, path: "/history", expectedStatus: http.StatusUnauthorized},
		{name: "login is protected", auth: denyAll, method: http.MethodPost, path: "/login", expectedStatus: http.StatusUnauthorized},
		{name: "credits is protected", auth: denyAll, method: http.MethodGet, path: "/credits", expectedStatus: http.StatusUnauthorized},
		{name: "upload", auth: asUser, method: http.MethodPost, path: "/upload", expectedStatus: http.StatusOK, expectedBody: "upload"},
		{name: "gstinfo passes path param", auth: asUser, method: http.MethodGet, path: "/gstinfo/29ABCDE1234F1Z5", expectedStatus: http.StatusOK, expectedBody: "29ABCDE1234F1Z5"},
		{name: "login", auth: asUser, method: http.MethodPost, path: "/login", expectedStatus: http.StatusOK, expectedBody: "login"},
		{name: "credits", auth: asUser, method: http.MethodGet, path: "/credits", expectedStatus: http.StatusOK, expectedBody: "credits"},
		{name: "history", auth: asUser, method: http.MethodGet, path: "/history", expectedStatus: http.StatusOK, expectedBody: "history"},
		{name: "upload rejects GET", auth: asUser, method: http.MethodGet, path: "/upload", expectedStatus: http.StatusMethodNotAllowed},
		{name: "unknown route", auth: asUser, method: http.MethodGet, path: "/nope", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := New(Options{Config: testConfig(), Logger: testutil.NewTestLogger(), Auth: tt.auth, Handlers: handlers})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			w := httptest.NewRecorder()
			server.Handler().ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedBody != "" && w.Body.String() != tt.expectedBody {
				t.Errorf("expected body %q, got %q", tt.expectedBody, w.Body.String())
			}
			if w.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("expected request id header on every response")
			}
		})
	}
}

func TestServer_UploadCarriesDeadline(t *testing.T) {
	var hasDeadline bool
	server, _ := New(Options{
		Config: testConfig(),
		Logger: testutil.NewTestLogger(),
		Auth:   asUser,
		Handlers: Handlers{
			Health: okHandler(""),
			Upload: func(w http.ResponseWriter, r *http.Request) {
				_, hasDeadline = r.Context().Deadline()
			},
		},
	})

	server.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/upload", nil))

	if !hasDeadline {
		t.Error("expected upload request context to carry a deadline")
	}
}

func TestServer_MissingHandlerIsUnavailable(t *testing.T) {
	server, _ := New(Options{
		Config:   testConfig(),
		Logger:   testutil.NewTestLogger(),
		Auth:     asUser,
		Handlers: Handlers{Health: okHandler("")},
	})

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/credits", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	server, _ := New(Options{
		Config:   testConfig(),
		Logger:   testutil.NewTestLogger(),
		Auth:     denyAll,
		Handlers: Handlers{Health: okHandler(""), Upload: okHandler("")},
	})

	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("expected allowed origin echoed, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("expected credentials allowed, got %q", got)
	}
}

func TestServer_CORSForeignOrigin(t *testing.T) {
	server, _ := New(Options{
		Config:   testConfig(),
		Logger:   testutil.NewTestLogger(),
		Auth:     asUser,
		Handlers: Handlers{Health: okHandler("")},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS grant for foreign origin, got %q", got)
	}
}

func TestServer_Run_ContextCancel(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.Port = 0

	server, err := New(Options{
		Config:   cfg,
		Logger:   testutil.NewTestLogger(),
		Auth:     asUser,
		Handlers: Handlers{Health: okHandler("")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
