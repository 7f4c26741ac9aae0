package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRequestTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	handler := RequestTimeout(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, hasDeadline = r.Context().Deadline()
	}))

	before := time.Now()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/upload", nil))

	if !hasDeadline {
		t.Fatal("expected request context to carry a deadline")
	}
	if deadline.Before(before.Add(59*time.Second)) || deadline.After(before.Add(61*time.Second)) {
		t.Errorf("expected deadline about one minute out, got %v", deadline.Sub(before))
	}
}

func TestRequestTimeout_ZeroDisables(t *testing.T) {
	var hasDeadline bool
	handler := RequestTimeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/upload", nil))

	if hasDeadline {
		t.Error("expected no deadline when timeout is zero")
	}
}
