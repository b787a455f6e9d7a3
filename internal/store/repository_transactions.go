package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

var ErrAlreadyProcessed = errors.New("already_processed")

// Prefixes for human-readable transaction references, keyed by type.
var refPrefixes = map[string]string{
	TxnDeposit:         "DEP",
	TxnWithdrawal:      "WDR",
	TxnBetWin:          "WIN",
	TxnBetWinReversal:  "REV",
	TxnBetRefund:       "RFD",
	TxnAdminAdjustment: "ADJ",
}

const txnColumns = `id, ref, user_id, type, amount, received_amount, status, note, bank_details, ref_id, processed_by, processed_at, created_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	if err := row.Scan(&t.ID, &t.Ref, &t.UserID, &t.Type, &t.Amount, &t.ReceivedAmount, &t.Status,
		&t.Note, &t.BankDetails, &t.RefID, &t.ProcessedBy, &t.ProcessedAt, &t.CreatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &t, nil
}

// CreateTransaction inserts a transaction record inside the caller's
// transaction. It fills ID, Ref, CreatedAt and, for withdrawals with no
// explicit received amount, defaults ReceivedAmount to Amount (no fee).
func (s *Store) CreateTransaction(ctx context.Context, tx pgx.Tx, t *Transaction, username string) error {
	t.ID = NewID()
	t.Ref = NewTransactionRef(refPrefixes[t.Type], username)
	if t.Status == "" {
		t.Status = TxnStatusPending
	}
	if t.Type == TxnWithdrawal && t.ReceivedAmount == 0 {
		t.ReceivedAmount = t.Amount
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO transactions (id, ref, user_id, type, amount, received_amount, status, note, bank_details, ref_id, processed_by, processed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at
	`, t.ID, t.Ref, t.UserID, t.Type, t.Amount, t.ReceivedAmount, t.Status, t.Note, t.BankDetails, t.RefID, t.ProcessedBy, t.ProcessedAt)
	return row.Scan(&t.CreatedAt)
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

// UpdateTransactionStatus moves a request record of the given type from one
// of the allowed source statuses to status, inside the caller's transaction.
// The source guard is in the WHERE clause so two concurrent approvals
// serialize on the row: exactly one succeeds, the other gets
// ErrAlreadyProcessed (or ErrNotFound when the record is missing or of the
// wrong type).
func (s *Store) UpdateTransactionStatus(ctx context.Context, tx pgx.Tx, id, txnType, status string, sources []string, processedBy, note string) (*Transaction, error) {
	row := tx.QueryRow(ctx, `
		UPDATE transactions
		SET status = $3, processed_by = $4, processed_at = now(),
		    note = CASE WHEN $5 <> '' THEN $5 ELSE note END
		WHERE id = $1 AND type = $2 AND status = ANY($6)
		RETURNING `+txnColumns,
		id, txnType, status, processedBy, note, sources)
	t, err := scanTransaction(row)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	var existing string
	if scanErr := tx.QueryRow(ctx, `SELECT status FROM transactions WHERE id = $1 AND type = $2`, id, txnType).Scan(&existing); scanErr != nil {
		return nil, mapNotFound(scanErr)
	}
	return nil, ErrAlreadyProcessed
}

type TransactionFilter struct {
	UserID string
	Type   string
	Status string
	From   *time.Time
	To     *time.Time
}

func (s *Store) ListTransactions(ctx context.Context, f TransactionFilter, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	where := "WHERE 1=1"
	args := []any{}
	if f.UserID != "" {
		args = append(args, f.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	args = append(args, limit, offset)
	q := `SELECT ` + txnColumns + ` FROM transactions ` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Ref, &t.UserID, &t.Type, &t.Amount, &t.ReceivedAmount, &t.Status,
			&t.Note, &t.BankDetails, &t.RefID, &t.ProcessedBy, &t.ProcessedAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
