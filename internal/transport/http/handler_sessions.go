package httptransport

import (
	"errors"
	"net/http"
	"time"

	"updown-admin/internal/app/session"
	"updown-admin/internal/store"

	"github.com/go-chi/chi/v5"
)

type SessionHandlers struct {
	sessions *session.Service
	store    *store.Store
}

func NewSessionHandlers(ss *session.Service, st *store.Store) *SessionHandlers {
	return &SessionHandlers{sessions: ss, store: st}
}

type createSessionRequest struct {
	StartsAt time.Time `json:"starts_at" validate:"required"`
}

func (h *SessionHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createSessionRequest
		if err := DecodeStrict(r, &body); err != nil {
			WriteValidationError(w, err)
			return
		}
		sess, err := h.sessions.Create(r.Context(), body.StartsAt)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteSuccess(w, "session created", sess)
	}
}

type resolveSessionRequest struct {
	Result string `json:"result" validate:"required,oneof=up down draw"`
}

func (h *SessionHandlers) Resolve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body resolveSessionRequest
		if err := DecodeStrict(r, &body); err != nil {
			WriteValidationError(w, err)
			return
		}
		res, err := h.sessions.Resolve(r.Context(), chi.URLParam(r, "session_id"), body.Result)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteSuccess(w, "session resolved", res)
	}
}

func (h *SessionHandlers) Activate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessions.Activate(r.Context(), chi.URLParam(r, "session_id"))
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteSuccess(w, "session active", sess)
	}
}

func (h *SessionHandlers) Cancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h.sessions.Cancel(r.Context(), chi.URLParam(r, "session_id"))
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteSuccess(w, "session cancelled; open bets refunded", res)
	}
}

func (h *SessionHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.store.GetSession(r.Context(), chi.URLParam(r, "session_id"))
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, sess)
	}
}

func (h *SessionHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		items, err := h.sessions.List(r.Context(), r.URL.Query().Get("status"), limit, offset)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error", "could not list sessions")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit, "offset": offset})
	}
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrAlreadyResolved):
		WriteHTTPError(w, http.StatusConflict, "already_resolved", "session has already been resolved or cancelled")
	case errors.Is(err, session.ErrInvalidRequest):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request", "request is not valid")
	case errors.Is(err, session.ErrNotFound), errors.Is(err, store.ErrNotFound):
		WriteHTTPError(w, http.StatusNotFound, "not_found", "session not found")
	default:
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error", "operation failed")
	}
}
