package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	ctxutil "3tcapital/gstlens/internal/infrastructure/context"
	"3tcapital/gstlens/internal/infrastructure/security"
)

// CorrelationHeader carries the request correlation ID to downstream services.
const CorrelationHeader = "X-Correlation-ID"

const defaultMaxBodySize = 102400

// TracingTransport logs every outbound round trip with credentials redacted
// and propagates the correlation ID of the request context.
type TracingTransport struct {
	Base        http.RoundTripper
	Log         *slog.Logger
	Service     string
	LogBodies   bool
	MaxBodySize int
}

// RoundTrip implements http.RoundTripper.
func (t *TracingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	log := t.Log
	if log == nil {
		log = slog.Default()
	}
	maxBody := t.MaxBodySize
	if maxBody == 0 {
		maxBody = defaultMaxBodySize
	}

	correlationID := ctxutil.GetCorrelationID(req.Context())
	if correlationID != "" {
		// RoundTrippers must not mutate the caller's request
		req = req.Clone(req.Context())
		req.Header.Set(CorrelationHeader, correlationID)
	}

	attrs := []any{
		"correlation_id", correlationID,
		"service", t.Service,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
	}

	// Upload payloads are binary and large; only JSON-ish bodies are worth logging.
	if t.LogBodies && req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			b, _ := io.ReadAll(io.LimitReader(body, int64(maxBody)+1))
			body.Close()
			attrs = append(attrs, "request_body", string(security.SanitizeBody(b, maxBody)))
		}
	}
	log.Debug("outbound_request", attrs...)

	start := time.Now()
	resp, err := base.RoundTrip(req)
	attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())

	if err != nil {
		log.Error("outbound_request_failed", append(attrs, "error", err.Error())...)
		return nil, err
	}

	attrs = append(attrs, "status", resp.StatusCode)
	if t.LogBodies && resp.Body != nil {
		b, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			log.Error("outbound_request_failed", append(attrs, "error", readErr.Error())...)
			return nil, readErr
		}
		resp.Body = io.NopCloser(bytes.NewReader(b))
		attrs = append(attrs, "response_body", string(security.SanitizeBody(b, maxBody)))
	}

	switch {
	case resp.StatusCode >= 500:
		log.Error("outbound_response", attrs...)
	case resp.StatusCode >= 400:
		log.Warn("outbound_response", attrs...)
	default:
		log.Info("outbound_response", attrs...)
	}
	return resp, nil
}
