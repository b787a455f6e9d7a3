package httptransport

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"updown-admin/internal/app/betting"
	"updown-admin/internal/app/review"
	appsession "updown-admin/internal/app/session"
	"updown-admin/internal/config"
	"updown-admin/internal/ledger"
	"updown-admin/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(st *store.Store, cfg config.ServerConfig) *chi.Mux {
	led := ledger.New(st)
	reviewSvc := review.NewService(st, led)
	bettingSvc := betting.NewService(st, led, cfg.PayoutMultiplier)
	sessionSvc := appsession.NewService(st, bettingSvc, cfg.SessionMinutes)

	userHandlers := NewUserHandlers(st, reviewSvc)
	reviewHandlers := NewReviewHandlers(st, reviewSvc)
	bettingHandlers := NewBettingHandlers(st, bettingSvc)
	sessionHandlers := NewSessionHandlers(sessionSvc, st)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			WriteHTTPError(w, http.StatusServiceUnavailable, "unhealthy", "database unreachable")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))

		r.Post("/users", userHandlers.Create())
		r.Get("/users", userHandlers.List())
		r.Get("/users/{user_id}", userHandlers.Get())
		r.Post("/users/{user_id}/adjust", userHandlers.Adjust())
		r.Get("/users/{user_id}/notifications", userHandlers.Notifications())

		r.Post("/deposits", reviewHandlers.CreateDeposit())
		r.Post("/deposits/{txn_id}/transition", reviewHandlers.Transition(store.TxnDeposit))
		r.Post("/withdrawals", reviewHandlers.CreateWithdrawal())
		r.Post("/withdrawals/{txn_id}/transition", reviewHandlers.Transition(store.TxnWithdrawal))
		r.Get("/transactions", reviewHandlers.ListTransactions())

		r.Post("/bets", bettingHandlers.Place())
		r.Post("/bets/{bet_id}/status", bettingHandlers.UpdateStatus())
		r.Get("/bets", bettingHandlers.List())

		r.Post("/sessions", sessionHandlers.Create())
		r.Post("/sessions/{session_id}/activate", sessionHandlers.Activate())
		r.Post("/sessions/{session_id}/resolve", sessionHandlers.Resolve())
		r.Post("/sessions/{session_id}/cancel", sessionHandlers.Cancel())
		r.Get("/sessions", sessionHandlers.List())
		r.Get("/sessions/{session_id}", sessionHandlers.Get())
	})

	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
