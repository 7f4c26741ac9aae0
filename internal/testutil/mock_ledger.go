package testutil

import (
	"context"
	"sync"

	"3tcapital/gstlens/internal/core/credit"
)

// MockLedger is a func-field credit.Ledger that also counts reservation and refund calls.
type MockLedger struct {
	ReserveFunc       func(ctx context.Context, userID string, cost int64) (bool, error)
	RefundFunc        func(ctx context.Context, userID string, cost int64) error
	BalanceFunc       func(ctx context.Context, userID string) (int64, error)
	EnsureAccountFunc func(ctx context.Context, userID string, initial int64) (credit.Account, error)

	mu       sync.Mutex
	reserves int
	refunds  int
}

// Reserve calls the mock function if set, otherwise grants the reservation.
func (m *MockLedger) Reserve(ctx context.Context, userID string, cost int64) (bool, error) {
	m.mu.Lock()
	m.reserves++
	m.mu.Unlock()
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, userID, cost)
	}
	return true, nil
}

// Refund calls the mock function if set.
func (m *MockLedger) Refund(ctx context.Context, userID string, cost int64) error {
	m.mu.Lock()
	m.refunds++
	m.mu.Unlock()
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, userID, cost)
	}
	return nil
}

// Balance calls the mock function if set, otherwise returns zero.
func (m *MockLedger) Balance(ctx context.Context, userID string) (int64, error) {
	if m.BalanceFunc != nil {
		return m.BalanceFunc(ctx, userID)
	}
	return 0, nil
}

// EnsureAccount calls the mock function if set, otherwise reports a new account with initial.
func (m *MockLedger) EnsureAccount(ctx context.Context, userID string, initial int64) (credit.Account, error) {
	if m.EnsureAccountFunc != nil {
		return m.EnsureAccountFunc(ctx, userID, initial)
	}
	return credit.Account{UserID: userID, Balance: initial, Created: true}, nil
}

// Reserves returns the number of Reserve calls.
func (m *MockLedger) Reserves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reserves
}

// Refunds returns the number of Refund calls.
func (m *MockLedger) Refunds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refunds
}

var _ credit.Ledger = (*MockLedger)(nil)
