package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"3tcapital/gstlens/internal/core/extraction"
)

// GuardConfig configures Guard.
type GuardConfig struct {
	Timeout       time.Duration
	MaxConcurrent int
	MaxFailures   int
	Cooldown      time.Duration
}

// Guard decorates an Oracle with a per-call timeout, a concurrency limit and a circuit breaker.
// It never retries.
type Guard struct {
	next    extraction.Oracle
	timeout time.Duration
	limiter *Limiter
	breaker *Breaker
	log     *slog.Logger
}

// NewGuard wraps next.
func NewGuard(next extraction.Oracle, cfg GuardConfig, log *slog.Logger) *Guard {
	return &Guard{
		next:    next,
		timeout: cfg.Timeout,
		limiter: NewLimiter(cfg.MaxConcurrent),
		breaker: NewBreaker(cfg.MaxFailures, cfg.Cooldown),
		log:     log,
	}
}

// Extract forwards to the wrapped oracle when the breaker and limiter allow it.
func (g *Guard) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	if err := g.breaker.Allow(); err != nil {
		g.log.Warn("oracle.rejected", "reason", "circuit_open")
		return "", err
	}

	if err := g.limiter.Acquire(ctx); err != nil {
		g.breaker.Skip()
		return "", fmt.Errorf("wait for oracle slot: %w", err)
	}
	defer g.limiter.Release()

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := g.next.Extract(callCtx, data, mimeType)

	// A caller that went away says nothing about the service's health.
	callerGone := ctx.Err() != nil
	if callerGone {
		g.breaker.Skip()
	} else {
		g.breaker.Record(err == nil)
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !callerGone {
			err = fmt.Errorf("oracle timed out after %s: %w", g.timeout, err)
		}
		g.log.Warn("oracle.call_failed",
			"error", err,
			"breaker", g.breaker.State().String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	g.log.Debug("oracle.call_ok", "active", g.limiter.Active(), "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

// BreakerState exposes the breaker state for health reporting.
func (g *Guard) BreakerState() BreakerState {
	return g.breaker.State()
}

var _ extraction.Oracle = (*Guard)(nil)
