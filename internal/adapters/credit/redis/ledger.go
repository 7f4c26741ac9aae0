package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"3tcapital/gstlens/internal/core/credit"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces balance keys.
const DefaultKeyPrefix = "credits:"

const (
	codeNotFound     = -1
	codeInsufficient = -2
)

// reserveScript performs the compare-and-decrement server side.
var reserveScript = redis.NewScript(`
local bal = redis.call('GET', KEYS[1])
if not bal then
	return -1
end
local cost = tonumber(ARGV[1])
if tonumber(bal) < cost then
	return -2
end
return redis.call('DECRBY', KEYS[1], cost)
`)

var refundScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('INCRBY', KEYS[1], ARGV[1])
`)

// Ledger implements credit.Ledger on Redis. Each balance is one integer key and
// every mutation runs as a Lua script, which Redis executes atomically.
type Ledger struct {
	client redis.UniversalClient
	prefix string
	log    *slog.Logger
}

// NewLedger creates a new Redis credit ledger.
func NewLedger(client redis.UniversalClient, prefix string, log *slog.Logger) *Ledger {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Ledger{client: client, prefix: prefix, log: log}
}

func (l *Ledger) key(userID string) string {
	return l.prefix + userID
}

// Reserve debits cost when the balance covers it.
func (l *Ledger) Reserve(ctx context.Context, userID string, cost int64) (bool, error) {
	if cost <= 0 {
		return false, credit.ErrInvalidAmount
	}

	res, err := reserveScript.Run(ctx, l.client, []string{l.key(userID)}, cost).Int64()
	if err != nil {
		return false, fmt.Errorf("reserve credit: %w", err)
	}

	switch res {
	case codeNotFound, codeInsufficient:
		l.log.Debug("credit.reserve", "user_id", userID, "cost", cost, "reserved", false, "code", res)
		return false, nil
	}
	l.log.Debug("credit.reserve", "user_id", userID, "cost", cost, "reserved", true, "balance", res)
	return true, nil
}

// Refund credits cost back to the user.
func (l *Ledger) Refund(ctx context.Context, userID string, cost int64) error {
	if cost <= 0 {
		return credit.ErrInvalidAmount
	}

	res, err := refundScript.Run(ctx, l.client, []string{l.key(userID)}, cost).Int64()
	if err != nil {
		return fmt.Errorf("refund credit: %w", err)
	}
	if res == codeNotFound {
		return fmt.Errorf("refund credit: %w", credit.ErrAccountNotFound)
	}
	l.log.Debug("credit.refund", "user_id", userID, "cost", cost, "balance", res)
	return nil
}

// Balance returns the user's balance.
func (l *Ledger) Balance(ctx context.Context, userID string) (int64, error) {
	v, err := l.client.Get(ctx, l.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, credit.ErrAccountNotFound
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	bal, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance %q: %w", v, err)
	}
	return bal, nil
}

// EnsureAccount opens the account with initial credits unless it already exists.
func (l *Ledger) EnsureAccount(ctx context.Context, userID string, initial int64) (credit.Account, error) {
	if initial < 0 {
		return credit.Account{}, credit.ErrInvalidAmount
	}

	created, err := l.client.SetNX(ctx, l.key(userID), initial, 0).Result()
	if err != nil {
		return credit.Account{}, fmt.Errorf("open account: %w", err)
	}
	if created {
		l.log.Info("credit.account_opened", "user_id", userID, "balance", initial)
		return credit.Account{UserID: userID, Balance: initial, Created: true}, nil
	}

	bal, err := l.Balance(ctx, userID)
	if err != nil {
		return credit.Account{}, err
	}
	return credit.Account{UserID: userID, Balance: bal}, nil
}

var _ credit.Ledger = (*Ledger)(nil)
