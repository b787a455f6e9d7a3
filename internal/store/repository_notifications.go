package store

import "context"

// InsertNotification is fire-and-forget from the ledger's perspective: it
// runs outside any financial transaction and its failure is only logged.
func (s *Store) InsertNotification(ctx context.Context, userID, kind, message string) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, kind, message) VALUES ($1,$2,$3,$4)`,
		NewID(), userID, kind, message)
	return err
}

func (s *Store) ListNotificationsByUser(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, user_id, kind, message, created_at FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Message, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
