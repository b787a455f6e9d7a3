package httptransport

import (
	"net/http"
	"time"

	"updown-admin/internal/app/review"
	"updown-admin/internal/store"

	"github.com/go-chi/chi/v5"
)

type ReviewHandlers struct {
	store  *store.Store
	review *review.Service
}

func NewReviewHandlers(st *store.Store, rs *review.Service) *ReviewHandlers {
	return &ReviewHandlers{store: st, review: rs}
}

type createDepositRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Note        string `json:"note" validate:"max=500"`
	BankDetails string `json:"bank_details" validate:"max=500"`
}

func (h *ReviewHandlers) CreateDeposit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createDepositRequest
		if err := DecodeStrict(r, &body); err != nil {
			WriteValidationError(w, err)
			return
		}
		txn, err := h.review.CreateDeposit(r.Context(), body.UserID, body.Amount, body.Note, body.BankDetails)
		if err != nil {
			writeReviewError(w, err)
			return
		}
		WriteSuccess(w, "deposit request created", txn)
	}
}

type createWithdrawalRequest struct {
	UserID         string `json:"user_id" validate:"required"`
	Amount         int64  `json:"amount" validate:"required,gt=0"`
	ReceivedAmount int64  `json:"received_amount" validate:"gte=0"`
	Note           string `json:"note" validate:"max=500"`
	BankDetails    string `json:"bank_details" validate:"max=500"`
}

func (h *ReviewHandlers) CreateWithdrawal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createWithdrawalRequest
		if err := DecodeStrict(r, &body); err != nil {
			WriteValidationError(w, err)
			return
		}
		received := body.ReceivedAmount
		if received == 0 {
			received = body.Amount
		}
		txn, err := h.review.CreateWithdrawal(r.Context(), body.UserID, body.Amount, received, body.Note, body.BankDetails)
		if err != nil {
			writeReviewError(w, err)
			return
		}
		WriteSuccess(w, "withdrawal request created; funds held", txn)
	}
}

type transitionRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected cancelled processing"`
	Note   string `json:"note" validate:"max=500"`
}

func (h *ReviewHandlers) Transition(txnType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body transitionRequest
		if err := DecodeStrict(r, &body); err != nil {
			WriteValidationError(w, err)
			return
		}
		txnID := chi.URLParam(r, "txn_id")
		result, err := h.review.Transition(r.Context(), txnType, txnID, body.Status, AdminFromContext(r.Context()), body.Note)
		if err != nil {
			writeReviewError(w, err)
			return
		}
		WriteSuccess(w, txnType+" "+result.Status, result)
	}
}

func (h *ReviewHandlers) ListTransactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		f := store.TransactionFilter{
			UserID: r.URL.Query().Get("user_id"),
			Type:   r.URL.Query().Get("type"),
			Status: r.URL.Query().Get("status"),
		}
		if v := r.URL.Query().Get("from"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				f.From = &t
			}
		}
		if v := r.URL.Query().Get("to"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				f.To = &t
			}
		}
		items, err := h.store.ListTransactions(r.Context(), f, limit, offset)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error", "could not list transactions")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit, "offset": offset})
	}
}
