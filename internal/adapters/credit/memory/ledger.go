package memory

import (
	"context"
	"sync"

	"3tcapital/gstlens/internal/core/credit"
)

// Ledger is a process-local credit.Ledger guarded by a single mutex.
// Balances are lost on restart; it suits development and tests.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[string]int64)}
}

// Reserve debits cost when the balance covers it.
func (l *Ledger) Reserve(ctx context.Context, userID string, cost int64) (bool, error) {
	if cost <= 0 {
		return false, credit.ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	bal, ok := l.balances[userID]
	if !ok || bal < cost {
		return false, nil
	}
	l.balances[userID] = bal - cost
	return true, nil
}

// Refund credits cost back to the user.
func (l *Ledger) Refund(ctx context.Context, userID string, cost int64) error {
	if cost <= 0 {
		return credit.ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.balances[userID]; !ok {
		return credit.ErrAccountNotFound
	}
	l.balances[userID] += cost
	return nil
}

// Balance returns the user's balance.
func (l *Ledger) Balance(ctx context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bal, ok := l.balances[userID]
	if !ok {
		return 0, credit.ErrAccountNotFound
	}
	return bal, nil
}

// EnsureAccount opens the account with initial credits unless it already exists.
func (l *Ledger) EnsureAccount(ctx context.Context, userID string, initial int64) (credit.Account, error) {
	if initial < 0 {
		return credit.Account{}, credit.ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if bal, ok := l.balances[userID]; ok {
		return credit.Account{UserID: userID, Balance: bal}, nil
	}
	l.balances[userID] = initial
	return credit.Account{UserID: userID, Balance: initial, Created: true}, nil
}

var _ credit.Ledger = (*Ledger)(nil)
