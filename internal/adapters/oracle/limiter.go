package oracle

import (
	"context"
	"sync/atomic"
)

// Limiter bounds the number of in-flight oracle calls.
type Limiter struct {
	slots  chan struct{}
	active atomic.Int64
}

// NewLimiter creates a limiter with maxConcurrent slots (default 8).
func NewLimiter(maxConcurrent int) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Limiter{slots: make(chan struct{}, maxConcurrent)}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *Limiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Active returns the number of calls holding a slot.
func (l *Limiter) Active() int {
	return int(l.active.Load())
}

// Capacity returns the configured slot count.
func (l *Limiter) Capacity() int {
	return cap(l.slots)
}
