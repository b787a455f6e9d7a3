package httptransport

import (
	"errors"
	"net/http"

	"updown-admin/internal/app/betting"
	"updown-admin/internal/ledger"
	"updown-admin/internal/store"

	"github.com/go-chi/chi/v5"
)

type BettingHandlers struct {
	store   *store.Store
	betting *betting.Service
}

func NewBettingHandlers(st *store.Store, bs *betting.Service) *BettingHandlers {
	return &BettingHandlers{store: st, betting: bs}
}

type placeBetRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
	Direction string `json:"direction" validate:"required,oneof=up down"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
}

func (h *BettingHandlers) Place() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body placeBetRequest
		if err := DecodeStrict(r, &body); err != nil {
			WriteValidationError(w, err)
			return
		}
		bet, err := h.betting.PlaceBet(r.Context(), body.UserID, body.SessionID, body.Direction, body.Amount)
		if err != nil {
			writeBettingError(w, err)
			return
		}
		WriteSuccess(w, "bet placed; stake held", bet)
	}
}

type betStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active won lost cancelled"`
	Note   string `json:"note" validate:"max=500"`
}

func (h *BettingHandlers) UpdateStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body betStatusRequest
		if err := DecodeStrict(r, &body); err != nil {
			WriteValidationError(w, err)
			return
		}
		bet, err := h.betting.UpdateBetStatus(r.Context(), chi.URLParam(r, "bet_id"), body.Status, body.Note)
		if err != nil {
			writeBettingError(w, err)
			return
		}
		WriteSuccess(w, "bet "+bet.Status, bet)
	}
}

func (h *BettingHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		f := store.BetFilter{
			UserID:    r.URL.Query().Get("user_id"),
			SessionID: r.URL.Query().Get("session_id"),
			Status:    r.URL.Query().Get("status"),
		}
		items, err := h.store.ListBets(r.Context(), f, limit, offset)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error", "could not list bets")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit, "offset": offset})
	}
}

func writeBettingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		WriteHTTPError(w, http.StatusBadRequest, "insufficient_funds", "the account balance does not cover this stake")
	case errors.Is(err, betting.ErrSessionClosed):
		WriteHTTPError(w, http.StatusBadRequest, "session_closed", "this session no longer accepts bets")
	case errors.Is(err, betting.ErrInvalidTransition):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_transition", "bet cannot move to that status")
	case errors.Is(err, betting.ErrInvalidRequest), errors.Is(err, ledger.ErrInvalidAmount):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request", "request is not valid")
	case errors.Is(err, betting.ErrNotFound), errors.Is(err, store.ErrNotFound):
		WriteHTTPError(w, http.StatusNotFound, "not_found", "bet or session not found")
	default:
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error", "operation failed; nothing was applied")
	}
}
