// Package ledger implements the single balance-mutation primitive. Every
// balance change in the system, without exception, goes through Apply so the
// non-negative invariant and the read-check-write discipline live in exactly
// one place.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"updown-admin/internal/store"

	"github.com/jackc/pgx/v5"
)

var (
	ErrInsufficientFunds = errors.New("insufficient_funds")
	ErrInvalidAmount     = errors.New("invalid_amount")
)

type Op string

const (
	// OpDeposit credits available funds.
	OpDeposit Op = "deposit"
	// OpWithdraw debits available funds; fails on overdraft.
	OpWithdraw Op = "withdraw"
	// OpFreeze moves available funds into the frozen hold.
	OpFreeze Op = "freeze"
	// OpUnfreeze returns held funds to available.
	OpUnfreeze Op = "unfreeze"
	// OpRelease consumes held funds without crediting available: an
	// approved withdrawal leaving the platform, or a lost stake.
	OpRelease Op = "release"
)

// next computes the balance after op. Pure: the transactional context and
// row locking are the caller's concern.
func next(b store.Balance, op Op, amount int64) (store.Balance, error) {
	if amount <= 0 {
		return b, ErrInvalidAmount
	}
	switch op {
	case OpDeposit:
		b.Available += amount
	case OpWithdraw:
		if b.Available < amount {
			return b, ErrInsufficientFunds
		}
		b.Available -= amount
	case OpFreeze:
		if b.Available < amount {
			return b, ErrInsufficientFunds
		}
		b.Available -= amount
		b.Frozen += amount
	case OpUnfreeze:
		if b.Frozen < amount {
			return b, ErrInsufficientFunds
		}
		b.Frozen -= amount
		b.Available += amount
	case OpRelease:
		if b.Frozen < amount {
			return b, ErrInsufficientFunds
		}
		b.Frozen -= amount
	default:
		return b, fmt.Errorf("ledger: unknown op %q", op)
	}
	return b, nil
}

type Ledger struct {
	Store *store.Store
}

func New(s *store.Store) *Ledger {
	return &Ledger{Store: s}
}

// Apply mutates one account's balance inside the caller's transaction. The
// row is re-read under FOR UPDATE immediately before the new value is
// computed, so concurrent mutations of the same account serialize on the
// row lock. Insufficient funds comes back as a typed error; the caller
// decides whether to abort its unit of work.
func (l *Ledger) Apply(ctx context.Context, tx pgx.Tx, userID string, op Op, amount int64) (store.Balance, error) {
	bal, err := l.Store.GetBalanceForUpdate(ctx, tx, userID)
	if err != nil {
		return store.Balance{}, err
	}
	updated, err := next(bal, op, amount)
	if err != nil {
		return store.Balance{}, err
	}
	if err := l.Store.UpdateBalance(ctx, tx, userID, updated); err != nil {
		return store.Balance{}, err
	}
	return updated, nil
}
