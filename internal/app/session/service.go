// Package session manages the fixed-duration trading windows bets are
// placed against. Resolving a session is the external event that drives
// bulk settlement: the result is recorded once, then every open bet of the
// session is handed to the settlement engine.
package session

import (
	"context"
	"errors"
	"time"

	"updown-admin/internal/app/betting"
	"updown-admin/internal/store"

	"github.com/rs/zerolog/log"
)

type Service struct {
	store   *store.Store
	betting *betting.Service
	minutes int
}

func NewService(st *store.Store, bs *betting.Service, sessionMinutes int) *Service {
	if sessionMinutes <= 0 {
		sessionMinutes = 5
	}
	return &Service{store: st, betting: bs, minutes: sessionMinutes}
}

// SessionID derives the id from the session's start time, so ids sort
// chronologically and a session can be addressed without a lookup.
func SessionID(startsAt time.Time) string {
	return "S" + startsAt.UTC().Format("20060102150405")
}

func (s *Service) Create(ctx context.Context, startsAt time.Time) (*store.TradingSession, error) {
	startsAt = startsAt.Truncate(time.Minute)
	endsAt := startsAt.Add(time.Duration(s.minutes) * time.Minute)
	status := store.SessionUpcoming
	if !startsAt.After(time.Now()) {
		status = store.SessionActive
	}
	id := SessionID(startsAt)
	if err := s.store.CreateSession(ctx, id, startsAt, endsAt, status); err != nil {
		return nil, err
	}
	return s.store.GetSession(ctx, id)
}

// Activate opens an upcoming session for betting ahead of its start time.
func (s *Service) Activate(ctx context.Context, sessionID string) (*store.TradingSession, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	switch sess.Status {
	case store.SessionActive:
		return sess, nil
	case store.SessionUpcoming:
	default:
		return nil, ErrAlreadyResolved
	}
	if err := s.store.UpdateSessionStatus(ctx, sessionID, store.SessionActive); err != nil {
		return nil, mapStoreErr(err)
	}
	return s.store.GetSession(ctx, sessionID)
}

type ResolveResult struct {
	Session *store.TradingSession `json:"session"`
	Settled int                   `json:"settled"`
	Failed  int                   `json:"failed"`
}

// Resolve posts the result and settles every open bet. The session row is
// the resolution guard: it moves to completed exactly once, so concurrent
// resolutions cannot settle the same bets twice. Individual bet failures do
// not unwind the session result; they are reported for operator follow-up.
func (s *Service) Resolve(ctx context.Context, sessionID, result string) (*ResolveResult, error) {
	if result != store.DirectionUp && result != store.DirectionDown && result != "draw" {
		return nil, ErrInvalidRequest
	}
	sess, err := s.store.MarkSessionResolved(ctx, sessionID, store.SessionCompleted, result)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	settled, failed, err := s.betting.SettleSession(ctx, sessionID, result)
	if err != nil {
		return nil, err
	}
	if err := s.store.RefreshSessionStats(ctx, sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("session stats refresh failed")
	}
	sess, statErr := s.store.GetSession(ctx, sessionID)
	if statErr != nil {
		return nil, statErr
	}
	return &ResolveResult{Session: sess, Settled: settled, Failed: failed}, nil
}

// Cancel voids a session before a result is known; open bets are refunded.
func (s *Service) Cancel(ctx context.Context, sessionID string) (*ResolveResult, error) {
	_, err := s.store.MarkSessionResolved(ctx, sessionID, store.SessionCancelled, "")
	if err != nil {
		return nil, mapStoreErr(err)
	}
	settled, failed, err := s.betting.SettleSession(ctx, sessionID, "draw")
	if err != nil {
		return nil, err
	}
	if err := s.store.RefreshSessionStats(ctx, sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("session stats refresh failed")
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &ResolveResult{Session: sess, Settled: settled, Failed: failed}, nil
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]store.TradingSession, error) {
	return s.store.ListSessions(ctx, status, limit, offset)
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrAlreadyProcessed):
		return ErrAlreadyResolved
	default:
		return err
	}
}
