package store

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

func TestSessionResolveOnce(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	id := mustCreateSession(t, st, ctx, "S20260102090000")

	resolved, err := st.MarkSessionResolved(ctx, id, SessionCompleted, DirectionUp)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != SessionCompleted || resolved.Result != DirectionUp {
		t.Fatalf("unexpected session: %+v", resolved)
	}

	// A second resolution loses the guard.
	if _, err := st.MarkSessionResolved(ctx, id, SessionCompleted, DirectionDown); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("want ErrAlreadyProcessed, got %v", err)
	}
	if _, err := st.MarkSessionResolved(ctx, "missing", SessionCompleted, DirectionUp); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	got, err := st.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Result != DirectionUp {
		t.Fatalf("first result overwritten: %+v", got)
	}
}

func TestRefreshSessionStats(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	userID := mustCreateUser(t, st, ctx, "kate", 100000)
	sessionID := mustCreateSession(t, st, ctx, "S20260102091000")

	seed := []*Bet{
		{UserID: userID, SessionID: sessionID, Direction: DirectionUp, Amount: 1000, Status: BetWon, Payout: 2000},
		{UserID: userID, SessionID: sessionID, Direction: DirectionUp, Amount: 3000, Status: BetLost},
		{UserID: userID, SessionID: sessionID, Direction: DirectionDown, Amount: 500, Status: BetCancelled},
	}
	for i, b := range seed {
		if err := st.WithTx(ctx, func(tx pgx.Tx) error {
			return st.InsertBet(ctx, tx, b)
		}); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	if err := st.RefreshSessionStats(ctx, sessionID); err != nil {
		t.Fatalf("refresh stats: %v", err)
	}
	got, err := st.GetSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	// Cancelled bets are excluded from the aggregates.
	if got.TotalBet != 4000 || got.TotalWin != 2000 || got.BetCount != 2 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestListSessions(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	base := time.Date(2026, 1, 3, 9, 0, 0, 0, time.UTC)
	for i, status := range []string{SessionUpcoming, SessionActive, SessionCompleted} {
		starts := base.Add(time.Duration(i*5) * time.Minute)
		id := "S" + starts.Format("20060102150405")
		if err := st.CreateSession(ctx, id, starts, starts.Add(5*time.Minute), status); err != nil {
			t.Fatalf("create session %d: %v", i, err)
		}
	}

	all, err := st.ListSessions(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("want 3 sessions, got %d", len(all))
	}
	if all[0].StartsAt.Before(all[1].StartsAt) {
		t.Fatalf("sessions not ordered newest first: %+v", all)
	}

	active, err := st.ListSessions(ctx, SessionActive, 10, 0)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].Status != SessionActive {
		t.Fatalf("unexpected active sessions: %+v", active)
	}
}
