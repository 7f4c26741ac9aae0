package oracle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"3tcapital/gstlens/internal/core/extraction"
	"3tcapital/gstlens/internal/testutil"
)

func TestGuardOpensBreakerOnFailures(t *testing.T) {
	spy := &testutil.SpyOracle{
		ExtractFunc: func(ctx context.Context, data []byte, mimeType string) (string, error) {
			return "", errors.New("upstream 500")
		},
	}
	g := NewGuard(spy, GuardConfig{MaxFailures: 2, Cooldown: time.Hour}, testutil.NewNullLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := g.Extract(ctx, nil, extraction.MIMETypePNG); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}

	_, err := g.Extract(ctx, nil, extraction.MIMETypePNG)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if spy.Calls() != 2 {
		t.Errorf("expected open breaker to short-circuit, got %d calls", spy.Calls())
	}
	if g.BreakerState() != BreakerOpen {
		t.Errorf("expected open state, got %s", g.BreakerState())
	}
}

func TestGuardAppliesTimeout(t *testing.T) {
	spy := &testutil.SpyOracle{
		ExtractFunc: func(ctx context.Context, data []byte, mimeType string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	g := NewGuard(spy, GuardConfig{Timeout: 20 * time.Millisecond}, testutil.NewNullLogger())

	_, err := g.Extract(context.Background(), nil, extraction.MIMETypePDF)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestGuardCallerCancellationDoesNotTripBreaker(t *testing.T) {
	spy := &testutil.SpyOracle{
		ExtractFunc: func(ctx context.Context, data []byte, mimeType string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	g := NewGuard(spy, GuardConfig{MaxFailures: 1}, testutil.NewNullLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Extract(ctx, nil, extraction.MIMETypePNG); err == nil {
		t.Fatal("expected error")
	}
	if g.BreakerState() != BreakerClosed {
		t.Errorf("expected closed breaker, got %s", g.BreakerState())
	}
}

func TestGuardLimitsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int64
	release := make(chan struct{})
	spy := &testutil.SpyOracle{
		ExtractFunc: func(ctx context.Context, data []byte, mimeType string) (string, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			inFlight.Add(-1)
			return `{}`, nil
		},
	}
	g := NewGuard(spy, GuardConfig{MaxConcurrent: 2}, testutil.NewNullLogger())

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = g.Extract(context.Background(), nil, extraction.MIMETypePNG)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent calls, got %d", peak.Load())
	}
	if spy.Calls() != 6 {
		t.Errorf("expected 6 calls, got %d", spy.Calls())
	}
}
