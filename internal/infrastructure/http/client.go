package http

import (
	"log/slog"
	"net/http"
	"time"
)

// ClientConfig holds configuration for outbound HTTP clients.
type ClientConfig struct {
	Timeout         time.Duration
	MaxConnsPerHost int // 0 = 50
	LogBodies       bool
	MaxBodySize     int // 0 = 100KB
	Transport       http.RoundTripper
}

// NewClient creates a pooled HTTP client whose round trips are traced under
// the given service name. If config is nil, a 30s timeout is used.
func NewClient(config *ClientConfig, log *slog.Logger, service string) *http.Client {
	if config == nil {
		config = &ClientConfig{Timeout: 30 * time.Second}
	}

	base := config.Transport
	if base == nil {
		maxConns := config.MaxConnsPerHost
		if maxConns == 0 {
			maxConns = 50
		}
		base = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   maxConns,
			MaxConnsPerHost:       maxConns,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}

	return &http.Client{
		Timeout: config.Timeout,
		Transport: &TracingTransport{
			Base:        base,
			Log:         log,
			Service:     service,
			LogBodies:   config.LogBodies,
			MaxBodySize: config.MaxBodySize,
		},
	}
}
