package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, status, available, frozen, balance_updated_at, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Status, &u.Balance.Available, &u.Balance.Frozen, &u.BalanceUpdatedAt, &u.CreatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, username string, initial int64) (string, error) {
	id := NewID()
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO users (id, username, status, available, frozen) VALUES ($1,$2,'active',$3,0)`,
		id, username, initial)
	return id, err
}

func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Status, &u.Balance.Available, &u.Balance.Frozen, &u.BalanceUpdatedAt, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetBalanceForUpdate locks the user's balance row for the duration of the
// surrounding transaction. Every mutation re-reads through this before
// computing the new value; there is no cross-request balance caching.
func (s *Store) GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, userID string) (Balance, error) {
	var b Balance
	row := tx.QueryRow(ctx, `SELECT available, frozen FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err := row.Scan(&b.Available, &b.Frozen); err != nil {
		return Balance{}, mapNotFound(err)
	}
	return b, nil
}

func (s *Store) UpdateBalance(ctx context.Context, tx pgx.Tx, userID string, b Balance) error {
	tag, err := tx.Exec(ctx,
		`UPDATE users SET available = $1, frozen = $2, balance_updated_at = now() WHERE id = $3`,
		b.Available, b.Frozen, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
