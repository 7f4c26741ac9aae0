package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"3tcapital/gstlens/internal/core/credit"
)

// ErrMissingUser is returned when no authenticated user id is supplied.
var ErrMissingUser = errors.New("user id is required")

// Service manages the caller's credit account.
type Service struct {
	ledger      credit.Ledger
	signupGrant int64
	log         *slog.Logger
}

// NewService creates an account service. New accounts open with signupGrant credits.
func NewService(ledger credit.Ledger, signupGrant int64, log *slog.Logger) *Service {
	return &Service{ledger: ledger, signupGrant: signupGrant, log: log}
}

// Login makes sure userID has a ledger account. The signup grant is applied
// only when this call opened the account.
func (s *Service) Login(ctx context.Context, userID string) (credit.Account, error) {
	if userID == "" {
		return credit.Account{}, ErrMissingUser
	}

	acct, err := s.ledger.EnsureAccount(ctx, userID, s.signupGrant)
	if err != nil {
		return credit.Account{}, fmt.Errorf("ensure account: %w", err)
	}
	if acct.Created {
		s.log.Info("account.created", "user_id", userID, "grant", s.signupGrant)
	}
	return acct, nil
}

// Balance returns the caller's credits. A user without an account has none.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrMissingUser
	}

	balance, err := s.ledger.Balance(ctx, userID)
	if errors.Is(err, credit.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}
