package testutil

import (
	"context"
	"sync/atomic"

	"3tcapital/gstlens/internal/core/gstin"
)

// MockRegistry is a mock implementation of gstin.Registry for testing.
type MockRegistry struct {
	LookupGSTFunc func(ctx context.Context, id string) (*gstin.Info, error)

	calls atomic.Int64
}

// LookupGST calls the mock function if set, otherwise reports not found.
func (m *MockRegistry) LookupGST(ctx context.Context, id string) (*gstin.Info, error) {
	m.calls.Add(1)
	if m.LookupGSTFunc != nil {
		return m.LookupGSTFunc(ctx, id)
	}
	return nil, gstin.ErrNotFound
}

// Calls returns the number of lookups performed.
func (m *MockRegistry) Calls() int64 {
	return m.calls.Load()
}

var _ gstin.Registry = (*MockRegistry)(nil)
