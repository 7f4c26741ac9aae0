package credit

import (
	"context"
	"errors"
)

// ErrAccountNotFound is returned when no ledger account exists for a user.
var ErrAccountNotFound = errors.New("credit account not found")

// ErrInvalidAmount is returned for non-positive reservation or refund amounts.
var ErrInvalidAmount = errors.New("credit amount must be positive")

// Ledger holds the prepaid integer credit balance of each user.
//
// Reserve must be a compare-and-decrement: it debits cost only when the balance covers it,
// atomically with respect to concurrent calls for the same user, and reports false without
// touching the balance otherwise. A balance is never observably negative.
// Refund credits cost back and must be equally atomic.
type Ledger interface {
	// Reserve debits cost from userID's balance when it is at least cost.
	// An unknown user has a zero balance and yields false.
	Reserve(ctx context.Context, userID string, cost int64) (bool, error)
	// Refund returns cost to userID's balance.
	Refund(ctx context.Context, userID string, cost int64) error
	// Balance returns the current balance or ErrAccountNotFound.
	Balance(ctx context.Context, userID string) (int64, error)
	// EnsureAccount opens an account with the initial balance if none exists.
	// It reports the resulting balance and whether the account was created by this call.
	EnsureAccount(ctx context.Context, userID string, initial int64) (Account, error)
}

// Account is a snapshot of one user's ledger account.
type Account struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
	Created bool   `json:"-"`
}

// EntryType is the business reason of a ledger movement.
type EntryType string

const (
	EntryGrant   EntryType = "GRANT"
	EntryReserve EntryType = "RESERVE"
	EntryRefund  EntryType = "REFUND"
)
