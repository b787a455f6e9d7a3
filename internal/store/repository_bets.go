package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const betColumns = `id, user_id, session_id, direction, amount, status, payout, note, created_at, settled_at`

func scanBet(row pgx.Row) (*Bet, error) {
	var b Bet
	if err := row.Scan(&b.ID, &b.UserID, &b.SessionID, &b.Direction, &b.Amount, &b.Status,
		&b.Payout, &b.Note, &b.CreatedAt, &b.SettledAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &b, nil
}

// InsertBet writes a new pending bet inside the caller's transaction, in the
// same unit of work that freezes the stake.
func (s *Store) InsertBet(ctx context.Context, tx pgx.Tx, b *Bet) error {
	b.ID = NewID()
	if b.Status == "" {
		b.Status = BetPending
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO bets (id, user_id, session_id, direction, amount, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, b.ID, b.UserID, b.SessionID, b.Direction, b.Amount, b.Status)
	return row.Scan(&b.CreatedAt)
}

func (s *Store) GetBet(ctx context.Context, id string) (*Bet, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+betColumns+` FROM bets WHERE id = $1`, id)
	return scanBet(row)
}

// GetBetForUpdate locks the bet row so concurrent settlements of the same
// bet serialize.
func (s *Store) GetBetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*Bet, error) {
	row := tx.QueryRow(ctx, `SELECT `+betColumns+` FROM bets WHERE id = $1 FOR UPDATE`, id)
	return scanBet(row)
}

func (s *Store) UpdateBetOutcome(ctx context.Context, tx pgx.Tx, id, status string, payout int64, note string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE bets
		SET status = $2, payout = $3,
		    note = CASE WHEN $4 <> '' THEN $4 ELSE note END,
		    settled_at = CASE WHEN $2 IN ('won','lost','cancelled') THEN now() ELSE settled_at END
		WHERE id = $1
	`, id, status, payout, note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUnresolvedBetsBySession returns the bets a session resolution still
// has to settle.
func (s *Store) ListUnresolvedBetsBySession(ctx context.Context, sessionID string) ([]Bet, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+betColumns+` FROM bets WHERE session_id = $1 AND status IN ('pending','active') ORDER BY created_at ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBets(rows)
}

type BetFilter struct {
	UserID    string
	SessionID string
	Status    string
}

func (s *Store) ListBets(ctx context.Context, f BetFilter, limit, offset int) ([]Bet, error) {
	if limit <= 0 {
		limit = 50
	}
	where := "WHERE 1=1"
	args := []any{}
	if f.UserID != "" {
		args = append(args, f.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if f.SessionID != "" {
		args = append(args, f.SessionID)
		where += fmt.Sprintf(" AND session_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, limit, offset)
	q := `SELECT ` + betColumns + ` FROM bets ` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBets(rows)
}

func collectBets(rows pgx.Rows) ([]Bet, error) {
	out := []Bet{}
	for rows.Next() {
		var b Bet
		if err := rows.Scan(&b.ID, &b.UserID, &b.SessionID, &b.Direction, &b.Amount, &b.Status,
			&b.Payout, &b.Note, &b.CreatedAt, &b.SettledAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
