// Package review runs deposit and withdrawal requests through their
// lifecycle: pending -> approved/rejected/cancelled, with an intermediate
// processing state for withdrawals. Transitions gate the ledger primitive;
// the balance effect and the record update commit or roll back as one unit.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"updown-admin/internal/ledger"
	"updown-admin/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

type Service struct {
	store  *store.Store
	ledger *ledger.Ledger
}

func NewService(st *store.Store, led *ledger.Ledger) *Service {
	return &Service{store: st, ledger: led}
}

// CreateDeposit records a pending deposit request. No funds move until the
// request is approved.
func (s *Service) CreateDeposit(ctx context.Context, userID string, amount int64, note, bankDetails string) (*store.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidRequest
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	txn := &store.Transaction{
		UserID:      userID,
		Type:        store.TxnDeposit,
		Amount:      amount,
		Note:        note,
		BankDetails: bankDetails,
	}
	err = s.store.WithTx(ctx, func(tx pgx.Tx) error {
		return s.store.CreateTransaction(ctx, tx, txn, user.Username)
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// CreateWithdrawal records a pending withdrawal request and freezes the
// requested amount in the same unit of work, so the user cannot spend funds
// already earmarked for withdrawal. ReceivedAmount defaults to the full
// amount; a caller charging a fee sets receivedAmount explicitly.
func (s *Service) CreateWithdrawal(ctx context.Context, userID string, amount, receivedAmount int64, note, bankDetails string) (*store.Transaction, error) {
	if amount <= 0 || receivedAmount < 0 || receivedAmount > amount {
		return nil, ErrInvalidRequest
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	txn := &store.Transaction{
		UserID:         userID,
		Type:           store.TxnWithdrawal,
		Amount:         amount,
		ReceivedAmount: receivedAmount,
		Note:           note,
		BankDetails:    bankDetails,
	}
	err = s.store.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.ledger.Apply(ctx, tx, userID, ledger.OpFreeze, amount); err != nil {
			return err
		}
		return s.store.CreateTransaction(ctx, tx, txn, user.Username)
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// transitionSources returns the statuses a record of txnType may be in for
// the target status to apply, or nil when the target is not allowed.
func transitionSources(txnType, target string) []string {
	switch txnType {
	case store.TxnDeposit:
		switch target {
		case store.TxnStatusApproved, store.TxnStatusRejected, store.TxnStatusCancelled:
			return []string{store.TxnStatusPending}
		}
	case store.TxnWithdrawal:
		switch target {
		case store.TxnStatusProcessing, store.TxnStatusCancelled:
			return []string{store.TxnStatusPending}
		case store.TxnStatusApproved, store.TxnStatusRejected:
			return []string{store.TxnStatusPending, store.TxnStatusProcessing}
		}
	}
	return nil
}

// Transition applies one lifecycle step to a request record, with the
// balance effect for that step executed in the same transaction:
//
//	deposit approved      -> credit available
//	deposit rejected      -> record only (no funds were held)
//	withdrawal approved   -> consume the frozen hold (funds leave)
//	withdrawal rejected   -> return the hold to available
//	withdrawal processing -> record only
//
// Re-invoking on a processed record fails instead of re-applying.
func (s *Service) Transition(ctx context.Context, txnType, txnID, target, processedBy, note string) (*TransitionResult, error) {
	sources := transitionSources(txnType, target)
	if sources == nil {
		return nil, ErrInvalidTransition
	}
	var txn *store.Transaction
	err := s.store.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		txn, err = s.store.UpdateTransactionStatus(ctx, tx, txnID, txnType, target, sources, processedBy, note)
		if err != nil {
			return mapStoreErr(err)
		}
		switch {
		case txnType == store.TxnDeposit && target == store.TxnStatusApproved:
			_, err = s.ledger.Apply(ctx, tx, txn.UserID, ledger.OpDeposit, txn.Amount)
		case txnType == store.TxnWithdrawal && target == store.TxnStatusApproved:
			_, err = s.ledger.Apply(ctx, tx, txn.UserID, ledger.OpRelease, txn.Amount)
		case txnType == store.TxnWithdrawal && (target == store.TxnStatusRejected || target == store.TxnStatusCancelled):
			_, err = s.ledger.Apply(ctx, tx, txn.UserID, ledger.OpUnfreeze, txn.Amount)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if txnType == store.TxnWithdrawal {
		s.notifyWithdrawal(ctx, txn, target)
	}
	return &TransitionResult{
		TransactionID: txn.ID,
		Ref:           txn.Ref,
		Status:        txn.Status,
		ProcessedAt:   derefTime(txn),
	}, nil
}

// notifyWithdrawal is best-effort and deliberately outside the financial
// transaction: a failed notification never rolls back money.
func (s *Service) notifyWithdrawal(ctx context.Context, txn *store.Transaction, target string) {
	msg := fmt.Sprintf("Your withdrawal %s is %s", txn.Ref, target)
	if err := s.store.InsertNotification(ctx, txn.UserID, "withdrawal_"+target, msg); err != nil {
		log.Error().Err(err).Str("transaction_id", txn.ID).Msg("withdrawal notification failed")
	}
}

// Adjust applies a signed admin adjustment: positive credits available,
// negative debits it (typed insufficient-funds on overdraft). The
// append-only admin_adjustment record is created already completed.
func (s *Service) Adjust(ctx context.Context, userID string, amount int64, note, processedBy string) (*store.Transaction, store.Balance, error) {
	if amount == 0 {
		return nil, store.Balance{}, ErrInvalidRequest
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, store.Balance{}, mapStoreErr(err)
	}
	op, abs := ledger.OpDeposit, amount
	if amount < 0 {
		op, abs = ledger.OpWithdraw, -amount
	}
	txn := &store.Transaction{
		UserID:      userID,
		Type:        store.TxnAdminAdjustment,
		Amount:      amount,
		Status:      store.TxnStatusCompleted,
		Note:        note,
		ProcessedBy: processedBy,
	}
	var bal store.Balance
	err = s.store.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		bal, err = s.ledger.Apply(ctx, tx, userID, op, abs)
		if err != nil {
			return err
		}
		return s.store.CreateTransaction(ctx, tx, txn, user.Username)
	})
	if err != nil {
		return nil, store.Balance{}, err
	}
	return txn, bal, nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrAlreadyProcessed):
		return ErrAlreadyProcessed
	default:
		return err
	}
}

func derefTime(txn *store.Transaction) time.Time {
	if txn.ProcessedAt != nil {
		return *txn.ProcessedAt
	}
	return time.Time{}
}
