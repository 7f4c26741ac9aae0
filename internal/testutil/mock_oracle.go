package testutil

import (
	"context"
	"sync"

	"3tcapital/gstlens/internal/core/extraction"
)

// SpyOracle is an extraction.Oracle that records its calls.
// With ExtractFunc unset it answers Response.
type SpyOracle struct {
	ExtractFunc func(ctx context.Context, data []byte, mimeType string) (string, error)
	Response    string

	mu        sync.Mutex
	calls     int
	mimeTypes []string
}

// Extract records the call and delegates to ExtractFunc when set.
func (s *SpyOracle) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mimeTypes = append(s.mimeTypes, mimeType)
	s.mu.Unlock()

	if s.ExtractFunc != nil {
		return s.ExtractFunc(ctx, data, mimeType)
	}
	return s.Response, nil
}

// Calls returns the number of Extract invocations.
func (s *SpyOracle) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// MIMETypes returns the MIME types received, in call order.
func (s *SpyOracle) MIMETypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.mimeTypes...)
}

var _ extraction.Oracle = (*SpyOracle)(nil)
