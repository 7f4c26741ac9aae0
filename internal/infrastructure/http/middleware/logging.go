package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	ctxutil "3tcapital/gstlens/internal/infrastructure/context"
)

// RequestIDHeader echoes the correlation ID back to the client.
const RequestIDHeader = "X-Request-ID"

// responseWriter wraps http.ResponseWriter to capture status code and bytes written.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

type accessKey struct{}

// accessRecord is filled by inner middleware so the access log can name the caller.
type accessRecord struct {
	userID string
}

func noteUser(ctx context.Context, userID string) {
	if rec, ok := ctx.Value(accessKey{}).(*accessRecord); ok {
		rec.userID = userID
	}
}

// RequestLogger returns a middleware that logs one access line per request.
// The chi request ID becomes the correlation ID of the request context.
// Log levels are determined by status code:
//   - Info: 2xx, 3xx
//   - Warn: 4xx
//   - Error: 5xx
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chimw.GetReqID(r.Context())
			ctx := ctxutil.WithCorrelationID(r.Context(), requestID)
			rec := &accessRecord{}
			ctx = context.WithValue(ctx, accessKey{}, rec)

			if requestID != "" {
				w.Header().Set(RequestIDHeader, requestID)
			}

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r.WithContext(ctx))

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"status", rw.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes", rw.bytesWritten,
			}
			if requestID != "" {
				attrs = append(attrs, "correlation_id", requestID)
			}
			if rec.userID != "" {
				attrs = append(attrs, "user_id", rec.userID)
			}
			if userAgent := r.Header.Get("User-Agent"); userAgent != "" {
				attrs = append(attrs, "user_agent", userAgent)
			}

			switch {
			case rw.statusCode >= 500:
				log.Error("http.request", attrs...)
			case rw.statusCode >= 400:
				log.Warn("http.request", attrs...)
			default:
				log.Info("http.request", attrs...)
			}
		})
	}
}
