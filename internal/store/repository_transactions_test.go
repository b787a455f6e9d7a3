package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestCreateTransactionFillsDefaults(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	userID := mustCreateUser(t, st, ctx, "carol", 50000)

	txn := &Transaction{UserID: userID, Type: TxnWithdrawal, Amount: 20000}
	err := st.WithTx(ctx, func(tx pgx.Tx) error {
		return st.CreateTransaction(ctx, tx, txn, "carol")
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if txn.ID == "" || txn.CreatedAt.IsZero() {
		t.Fatalf("defaults not filled: %+v", txn)
	}
	if txn.Status != TxnStatusPending {
		t.Fatalf("want pending, got %s", txn.Status)
	}
	if txn.ReceivedAmount != 20000 {
		t.Fatalf("received_amount should default to amount, got %d", txn.ReceivedAmount)
	}
	if !strings.HasPrefix(txn.Ref, "WDRcarol") {
		t.Fatalf("unexpected ref %q", txn.Ref)
	}

	got, err := st.GetTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if got.Ref != txn.Ref || got.Amount != 20000 {
		t.Fatalf("unexpected transaction: %+v", got)
	}
}

func TestUpdateTransactionStatusGuard(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	userID := mustCreateUser(t, st, ctx, "dave", 0)
	txn := &Transaction{UserID: userID, Type: TxnDeposit, Amount: 10000}
	if err := st.WithTx(ctx, func(tx pgx.Tx) error {
		return st.CreateTransaction(ctx, tx, txn, "dave")
	}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	var updated *Transaction
	err := st.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		updated, err = st.UpdateTransactionStatus(ctx, tx, txn.ID, TxnDeposit, TxnStatusApproved,
			[]string{TxnStatusPending}, "admin", "looks good")
		return err
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if updated.Status != TxnStatusApproved || updated.ProcessedBy != "admin" || updated.ProcessedAt == nil {
		t.Fatalf("unexpected updated row: %+v", updated)
	}
	if updated.Note != "looks good" {
		t.Fatalf("note not recorded: %+v", updated)
	}

	// Second approval must fail: status is no longer in the source list.
	err = st.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := st.UpdateTransactionStatus(ctx, tx, txn.ID, TxnDeposit, TxnStatusApproved,
			[]string{TxnStatusPending}, "admin", "")
		return err
	})
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("want ErrAlreadyProcessed, got %v", err)
	}

	// Wrong type is a not-found, not an already-processed.
	err = st.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := st.UpdateTransactionStatus(ctx, tx, txn.ID, TxnWithdrawal, TxnStatusApproved,
			[]string{TxnStatusPending}, "admin", "")
		return err
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for wrong type, got %v", err)
	}
}

func TestListTransactionsFilter(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	u1 := mustCreateUser(t, st, ctx, "erin", 0)
	u2 := mustCreateUser(t, st, ctx, "frank", 0)

	seed := []*Transaction{
		{UserID: u1, Type: TxnDeposit, Amount: 1000},
		{UserID: u1, Type: TxnWithdrawal, Amount: 500},
		{UserID: u2, Type: TxnDeposit, Amount: 2000},
	}
	for i, txn := range seed {
		username := "erin"
		if txn.UserID == u2 {
			username = "frank"
		}
		if err := st.WithTx(ctx, func(tx pgx.Tx) error {
			return st.CreateTransaction(ctx, tx, txn, username)
		}); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	byUser, err := st.ListTransactions(ctx, TransactionFilter{UserID: u1}, 10, 0)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(byUser) != 2 {
		t.Fatalf("want 2 for u1, got %d", len(byUser))
	}

	deposits, err := st.ListTransactions(ctx, TransactionFilter{Type: TxnDeposit}, 10, 0)
	if err != nil {
		t.Fatalf("list deposits: %v", err)
	}
	if len(deposits) != 2 {
		t.Fatalf("want 2 deposits, got %d", len(deposits))
	}

	pendingWdr, err := st.ListTransactions(ctx, TransactionFilter{Type: TxnWithdrawal, Status: TxnStatusPending}, 10, 0)
	if err != nil {
		t.Fatalf("list pending withdrawals: %v", err)
	}
	if len(pendingWdr) != 1 || pendingWdr[0].UserID != u1 {
		t.Fatalf("unexpected pending withdrawals: %+v", pendingWdr)
	}
}
