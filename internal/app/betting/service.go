// Package betting moves stakes through their life: placement freezes the
// stake, settlement converts a decided outcome into a balance mutation plus
// an append-only transaction record. Corrections append compensating
// records; the original bet_win is never edited.
package betting

import (
	"context"
	"errors"

	"updown-admin/internal/ledger"
	"updown-admin/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

type Service struct {
	store      *store.Store
	ledger     *ledger.Ledger
	multiplier int64
}

func NewService(st *store.Store, led *ledger.Ledger, payoutMultiplier int64) *Service {
	if payoutMultiplier <= 0 {
		payoutMultiplier = 2
	}
	return &Service{store: st, ledger: led, multiplier: payoutMultiplier}
}

// PlaceBet freezes the stake and inserts the pending bet as one unit of
// work. An overdraft surfaces as ledger.ErrInsufficientFunds with no
// effects applied.
func (s *Service) PlaceBet(ctx context.Context, userID, sessionID, direction string, amount int64) (*store.Bet, error) {
	if amount <= 0 {
		return nil, ErrInvalidRequest
	}
	if direction != store.DirectionUp && direction != store.DirectionDown {
		return nil, ErrInvalidRequest
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if sess.Status != store.SessionUpcoming && sess.Status != store.SessionActive {
		return nil, ErrSessionClosed
	}
	bet := &store.Bet{
		UserID:    userID,
		SessionID: sessionID,
		Direction: direction,
		Amount:    amount,
	}
	err = s.store.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.ledger.Apply(ctx, tx, userID, ledger.OpFreeze, amount); err != nil {
			return err
		}
		return s.store.InsertBet(ctx, tx, bet)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return bet, nil
}

// UpdateBetStatus settles or corrects one bet. The ledger plan, the bet row
// update and any compensating transaction records run in a single
// transaction; the bet row is locked first so concurrent settlements of the
// same bet serialize.
func (s *Service) UpdateBetStatus(ctx context.Context, betID, newStatus, note string) (*store.Bet, error) {
	switch newStatus {
	case store.BetActive, store.BetWon, store.BetLost, store.BetCancelled:
	default:
		return nil, ErrInvalidRequest
	}
	var bet *store.Bet
	err := s.store.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		bet, err = s.store.GetBetForUpdate(ctx, tx, betID)
		if err != nil {
			return mapStoreErr(err)
		}
		if bet.Status == newStatus {
			return ErrInvalidTransition
		}
		// A resolved bet may be corrected to another outcome, but not
		// quietly re-opened: its hold is gone and re-opening would
		// mint frozen funds with no audit record.
		if terminal(bet.Status) && !terminal(newStatus) {
			return ErrInvalidTransition
		}

		user, err := s.store.GetUser(ctx, bet.UserID)
		if err != nil {
			return mapStoreErr(err)
		}
		for _, st := range settlementSteps(bet.Status, newStatus, bet.Amount, s.multiplier) {
			if _, err := s.ledger.Apply(ctx, tx, bet.UserID, st.op, st.amount); err != nil {
				return err
			}
		}
		if err := s.appendSettlementRecords(ctx, tx, bet, newStatus, user.Username, note); err != nil {
			return err
		}

		payout := int64(0)
		if newStatus == store.BetWon {
			payout = bet.Amount * s.multiplier
		}
		if err := s.store.UpdateBetOutcome(ctx, tx, bet.ID, newStatus, payout, note); err != nil {
			return err
		}
		bet.Status = newStatus
		bet.Payout = payout
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bet, nil
}

// appendSettlementRecords writes the audit trail for one status change.
// Corrections are new compensating records, never edits: leaving won
// appends a bet_win_reversal for exactly the winnings that were credited.
func (s *Service) appendSettlementRecords(ctx context.Context, tx pgx.Tx, bet *store.Bet, newStatus, username, note string) error {
	winnings := bet.Amount * s.multiplier
	if bet.Status == store.BetWon {
		rec := &store.Transaction{
			UserID: bet.UserID,
			Type:   store.TxnBetWinReversal,
			Amount: -winnings,
			Status: store.TxnStatusCompleted,
			Note:   note,
			RefID:  bet.ID,
		}
		if err := s.store.CreateTransaction(ctx, tx, rec, username); err != nil {
			return err
		}
	}
	switch newStatus {
	case store.BetWon:
		rec := &store.Transaction{
			UserID: bet.UserID,
			Type:   store.TxnBetWin,
			Amount: winnings,
			Status: store.TxnStatusCompleted,
			Note:   note,
			RefID:  bet.ID,
		}
		return s.store.CreateTransaction(ctx, tx, rec, username)
	case store.BetCancelled:
		rec := &store.Transaction{
			UserID: bet.UserID,
			Type:   store.TxnBetRefund,
			Amount: bet.Amount,
			Status: store.TxnStatusCompleted,
			Note:   note,
			RefID:  bet.ID,
		}
		return s.store.CreateTransaction(ctx, tx, rec, username)
	}
	return nil
}

// Outcome maps a session result onto one bet's terminal status.
func Outcome(direction, result string) string {
	switch result {
	case store.DirectionUp, store.DirectionDown:
		if direction == result {
			return store.BetWon
		}
		return store.BetLost
	default:
		// draw or voided session: stakes go back
		return store.BetCancelled
	}
}

// SettleSession settles every unresolved bet of a resolved session. Each
// bet is its own transaction; one failing bet is logged and skipped so the
// rest of the session still settles. Returns the number settled and the
// number failed.
func (s *Service) SettleSession(ctx context.Context, sessionID, result string) (int, int, error) {
	bets, err := s.store.ListUnresolvedBetsBySession(ctx, sessionID)
	if err != nil {
		return 0, 0, err
	}
	settled, failed := 0, 0
	for _, b := range bets {
		if _, err := s.UpdateBetStatus(ctx, b.ID, Outcome(b.Direction, result), "session "+sessionID+" resolved "+result); err != nil {
			failed++
			log.Error().Err(err).Str("bet_id", b.ID).Str("session_id", sessionID).Msg("bet settlement failed")
			continue
		}
		settled++
	}
	return settled, failed, nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
