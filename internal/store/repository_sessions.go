package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, starts_at, ends_at, status, result, total_bet, total_win, bet_count, created_at`

func scanSession(row pgx.Row) (*TradingSession, error) {
	var ts TradingSession
	if err := row.Scan(&ts.ID, &ts.StartsAt, &ts.EndsAt, &ts.Status, &ts.Result,
		&ts.TotalBet, &ts.TotalWin, &ts.BetCount, &ts.CreatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &ts, nil
}

func (s *Store) CreateSession(ctx context.Context, id string, startsAt, endsAt time.Time, status string) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO sessions (id, starts_at, ends_at, status) VALUES ($1,$2,$3,$4)`,
		id, startsAt, endsAt, status)
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (*TradingSession, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// MarkSessionResolved moves an unresolved session to its terminal status and
// records the result. Returns ErrAlreadyProcessed when the session was
// already resolved, so two concurrent resolutions settle bets only once.
func (s *Store) MarkSessionResolved(ctx context.Context, id, status, result string) (*TradingSession, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE sessions SET status = $2, result = $3
		WHERE id = $1 AND status IN ('upcoming','active')
		RETURNING `+sessionColumns,
		id, status, result)
	ts, err := scanSession(row)
	if err == nil {
		return ts, nil
	}
	if err != ErrNotFound {
		return nil, err
	}
	var existing string
	if scanErr := s.Pool.QueryRow(ctx, `SELECT status FROM sessions WHERE id = $1`, id).Scan(&existing); scanErr != nil {
		return nil, mapNotFound(scanErr)
	}
	return nil, ErrAlreadyProcessed
}

func (s *Store) UpdateSessionStatus(ctx context.Context, id, status string) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE sessions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RefreshSessionStats recomputes the session aggregates from its bets.
func (s *Store) RefreshSessionStats(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE sessions SET
			total_bet = (SELECT COALESCE(SUM(amount), 0) FROM bets WHERE session_id = $1 AND status <> 'cancelled'),
			total_win = (SELECT COALESCE(SUM(payout), 0) FROM bets WHERE session_id = $1 AND status = 'won'),
			bet_count = (SELECT COUNT(1) FROM bets WHERE session_id = $1 AND status <> 'cancelled')
		WHERE id = $1
	`, id)
	return err
}

func (s *Store) ListSessions(ctx context.Context, status string, limit, offset int) ([]TradingSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows pgx.Rows
	var err error
	if status == "" {
		rows, err = s.Pool.Query(ctx,
			`SELECT `+sessionColumns+` FROM sessions ORDER BY starts_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	} else {
		rows, err = s.Pool.Query(ctx,
			`SELECT `+sessionColumns+` FROM sessions WHERE status = $1 ORDER BY starts_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TradingSession{}
	for rows.Next() {
		var ts TradingSession
		if err := rows.Scan(&ts.ID, &ts.StartsAt, &ts.EndsAt, &ts.Status, &ts.Result,
			&ts.TotalBet, &ts.TotalWin, &ts.BetCount, &ts.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}
