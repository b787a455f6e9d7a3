package review

import "time"

type TransitionResult struct {
	TransactionID string    `json:"transaction_id"`
	Ref           string    `json:"ref"`
	Status        string    `json:"status"`
	ProcessedAt   time.Time `json:"processed_at"`
}
