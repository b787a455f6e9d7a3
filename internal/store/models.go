package store

import "time"

// Transaction types. Deposit and withdrawal rows are workflow requests whose
// status moves; the rest are append-only monetary records created final.
const (
	TxnDeposit         = "deposit"
	TxnWithdrawal      = "withdrawal"
	TxnBetWin          = "bet_win"
	TxnBetWinReversal  = "bet_win_reversal"
	TxnBetRefund       = "bet_refund"
	TxnAdminAdjustment = "admin_adjustment"
)

const (
	TxnStatusPending    = "pending"
	TxnStatusProcessing = "processing"
	TxnStatusApproved   = "approved"
	TxnStatusRejected   = "rejected"
	TxnStatusCancelled  = "cancelled"
	TxnStatusCompleted  = "completed"
)

const (
	BetPending   = "pending"
	BetActive    = "active"
	BetWon       = "won"
	BetLost      = "lost"
	BetCancelled = "cancelled"
)

const (
	SessionUpcoming  = "upcoming"
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Balance is the two-bucket account balance. Mutated only through the
// ledger primitive.
type Balance struct {
	Available int64 `json:"available"`
	Frozen    int64 `json:"frozen"`
}

type User struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Status           string    `json:"status"`
	Balance          Balance   `json:"balance"`
	BalanceUpdatedAt time.Time `json:"balance_updated_at"`
	CreatedAt        time.Time `json:"created_at"`
}

type Transaction struct {
	ID             string     `json:"id"`
	Ref            string     `json:"ref"`
	UserID         string     `json:"user_id"`
	Type           string     `json:"type"`
	Amount         int64      `json:"amount"`
	ReceivedAmount int64      `json:"received_amount"`
	Status         string     `json:"status"`
	Note           string     `json:"note"`
	BankDetails    string     `json:"bank_details,omitempty"`
	RefID          string     `json:"ref_id,omitempty"`
	ProcessedBy    string     `json:"processed_by,omitempty"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type Bet struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	SessionID string     `json:"session_id"`
	Direction string     `json:"direction"`
	Amount    int64      `json:"amount"`
	Status    string     `json:"status"`
	Payout    int64      `json:"payout"`
	Note      string     `json:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

type TradingSession struct {
	ID        string    `json:"id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Status    string    `json:"status"`
	Result    string    `json:"result,omitempty"`
	TotalBet  int64     `json:"total_bet"`
	TotalWin  int64     `json:"total_win"`
	BetCount  int       `json:"bet_count"`
	CreatedAt time.Time `json:"created_at"`
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
