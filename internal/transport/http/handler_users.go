package httptransport

import (
	"errors"
	"net/http"

	"updown-admin/internal/app/review"
	"updown-admin/internal/ledger"
	"updown-admin/internal/store"

	"github.com/go-chi/chi/v5"
)

type UserHandlers struct {
	store  *store.Store
	review *review.Service
}

func NewUserHandlers(st *store.Store, rs *review.Service) *UserHandlers {
	return &UserHandlers{store: st, review: rs}
}

type createUserRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=32,alphanum"`
	InitialBalance int64  `json:"initial_balance" validate:"gte=0"`
}

func (h *UserHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createUserRequest
		if err := DecodeStrict(r, &body); err != nil {
			WriteValidationError(w, err)
			return
		}
		if _, err := h.store.GetUserByUsername(r.Context(), body.Username); err == nil {
			WriteHTTPError(w, http.StatusConflict, "username_taken", "username already exists")
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error", "could not create user")
			return
		}
		id, err := h.store.CreateUser(r.Context(), body.Username, body.InitialBalance)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error", "could not create user")
			return
		}
		user, err := h.store.GetUser(r.Context(), id)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error", "could not create user")
			return
		}
		WriteSuccess(w, "user created", user)
	}
}

func (h *UserHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		items, err := h.store.ListUsers(r.Context(), limit, offset)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error", "could not list users")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit, "offset": offset})
	}
}

func (h *UserHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := h.store.GetUser(r.Context(), chi.URLParam(r, "user_id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				WriteHTTPError(w, http.StatusNotFound, "not_found", "user not found")
				return
			}
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error", "could not load user")
			return
		}
		WriteJSON(w, http.StatusOK, user)
	}
}

type adjustRequest struct {
	Amount int64  `json:"amount" validate:"required"`
	Note   string `json:"note" validate:"max=500"`
}

func (h *UserHandlers) Adjust() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body adjustRequest
		if err := DecodeStrict(r, &body); err != nil {
			WriteValidationError(w, err)
			return
		}
		userID := chi.URLParam(r, "user_id")
		txn, bal, err := h.review.Adjust(r.Context(), userID, body.Amount, body.Note, AdminFromContext(r.Context()))
		if err != nil {
			writeReviewError(w, err)
			return
		}
		WriteSuccess(w, "balance adjusted", map[string]any{
			"transaction": txn,
			"balance":     bal,
		})
	}
}

func (h *UserHandlers) Notifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		items, err := h.store.ListNotificationsByUser(r.Context(), chi.URLParam(r, "user_id"), limit, offset)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error", "could not list notifications")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit, "offset": offset})
	}
}

// writeReviewError maps lifecycle errors onto the operator-facing taxonomy.
// Insufficient funds and already-processed get distinct messages so an
// operator can tell "cannot do this" from "something broke".
func writeReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		WriteHTTPError(w, http.StatusBadRequest, "insufficient_funds", "the account balance does not cover this operation")
	case errors.Is(err, review.ErrAlreadyProcessed):
		WriteHTTPError(w, http.StatusBadRequest, "already_processed", "this request was already processed")
	case errors.Is(err, review.ErrInvalidTransition):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_transition", "target status is not allowed for this request")
	case errors.Is(err, review.ErrInvalidRequest), errors.Is(err, ledger.ErrInvalidAmount):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request", "request is not valid")
	case errors.Is(err, review.ErrNotFound), errors.Is(err, store.ErrNotFound):
		WriteHTTPError(w, http.StatusNotFound, "not_found", "no matching pending request")
	default:
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error", "operation failed; nothing was applied")
	}
}
