package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"3tcapital/gstlens/internal/core/credit"
	infractx "3tcapital/gstlens/internal/infrastructure/context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ledger implements credit.Ledger on PostgreSQL.
// Reservations are a single conditional UPDATE, so concurrent requests for one user
// serialize on the row lock and can never drive the balance below zero.
// Every movement is journaled to credit_entries in the same transaction.
type Ledger struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewLedger creates a new PostgreSQL credit ledger.
func NewLedger(pool *pgxpool.Pool, log *slog.Logger) *Ledger {
	return &Ledger{pool: pool, log: log}
}

const (
	reserveQuery = `
		UPDATE credit_accounts
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance
	`
	refundQuery = `
		UPDATE credit_accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING balance
	`
	balanceQuery = `SELECT balance FROM credit_accounts WHERE user_id = $1`
	openQuery    = `
		INSERT INTO credit_accounts (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING balance
	`
	entryQuery = `
		INSERT INTO credit_entries (id, user_id, entry_type, amount, balance, reference)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
)

// Reserve debits cost when the balance covers it.
func (l *Ledger) Reserve(ctx context.Context, userID string, cost int64) (bool, error) {
	if cost <= 0 {
		return false, credit.ErrInvalidAmount
	}

	reserved := false
	err := pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
		var balance int64
		if err := tx.QueryRow(ctx, reserveQuery, userID, cost).Scan(&balance); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("debit balance: %w", err)
		}
		reserved = true
		return l.journal(ctx, tx, userID, credit.EntryReserve, -cost, balance)
	})
	if err != nil {
		return false, fmt.Errorf("reserve credit: %w", err)
	}

	l.log.Debug("credit.reserve", "user_id", userID, "cost", cost, "reserved", reserved)
	return reserved, nil
}

// Refund credits cost back to the user.
func (l *Ledger) Refund(ctx context.Context, userID string, cost int64) error {
	if cost <= 0 {
		return credit.ErrInvalidAmount
	}

	err := pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
		var balance int64
		if err := tx.QueryRow(ctx, refundQuery, userID, cost).Scan(&balance); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return credit.ErrAccountNotFound
			}
			return fmt.Errorf("credit balance: %w", err)
		}
		return l.journal(ctx, tx, userID, credit.EntryRefund, cost, balance)
	})
	if err != nil {
		return fmt.Errorf("refund credit: %w", err)
	}

	l.log.Debug("credit.refund", "user_id", userID, "cost", cost)
	return nil
}

// Balance returns the user's balance.
func (l *Ledger) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	if err := l.pool.QueryRow(ctx, balanceQuery, userID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, credit.ErrAccountNotFound
		}
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

// EnsureAccount opens the account with initial credits unless it already exists.
func (l *Ledger) EnsureAccount(ctx context.Context, userID string, initial int64) (credit.Account, error) {
	if initial < 0 {
		return credit.Account{}, credit.ErrInvalidAmount
	}

	acc := credit.Account{UserID: userID}
	err := pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, openQuery, userID, initial).Scan(&acc.Balance)
		if errors.Is(err, pgx.ErrNoRows) {
			if err := tx.QueryRow(ctx, balanceQuery, userID).Scan(&acc.Balance); err != nil {
				return fmt.Errorf("query balance: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		acc.Created = true
		if initial == 0 {
			return nil
		}
		return l.journal(ctx, tx, userID, credit.EntryGrant, initial, acc.Balance)
	})
	if err != nil {
		return credit.Account{}, fmt.Errorf("ensure account: %w", err)
	}

	if acc.Created {
		l.log.Info("credit.account_opened", "user_id", userID, "balance", acc.Balance)
	}
	return acc, nil
}

// journal records a movement. RESERVE and REFUND rows reference the upload's reservation id,
// which is also the key of its extraction_audit_log row.
func (l *Ledger) journal(ctx context.Context, tx pgx.Tx, userID string, typ credit.EntryType, amount, balance int64) error {
	_, err := tx.Exec(ctx, entryQuery, uuid.NewString(), userID, string(typ), amount, balance, entryReference(ctx))
	if err != nil {
		return fmt.Errorf("insert %s entry: %w", typ, err)
	}
	return nil
}

func entryReference(ctx context.Context) string {
	if id := infractx.GetReservationID(ctx); id != "" {
		return id
	}
	return infractx.GetCorrelationID(ctx)
}

var _ credit.Ledger = (*Ledger)(nil)
