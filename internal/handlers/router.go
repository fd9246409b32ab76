package handlers

import (
	"crypto/subtle"
	"net/http"

	"atmcore/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Maintenance-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	withSession := middleware.Session(h.auth)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/pin", h.ChangePin)
		r.With(withSession).Get("/session", h.Session)
	})
	router.With(withSession).Get("/accounts/balance", h.GetBalance)
	router.With(withSession).Get("/transactions", h.ListTransactions)
	router.With(withSession).Post("/transactions/withdraw", h.Withdraw)
	router.With(withSession).Post("/transactions/deposit", h.Deposit)
	router.With(withSession).Post("/transactions/transfer", h.Transfer)
	router.Get("/ws/balances", h.WSBalances)

	router.Route("/maintenance", func(r chi.Router) {
		r.Use(h.requireMaintenanceKey)
		r.Post("/rollover", h.Rollover)
		r.Post("/holds/release", h.ReleaseHolds)
		r.Post("/fees", h.PostFee)
		r.Post("/interest", h.AccrueInterest)
		r.Get("/cassettes", h.ListCassettes)
		r.Post("/cassettes/restock", h.RestockCassette)
		r.Get("/audit", h.ListAuditEvents)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}

func (h *Handler) requireMaintenanceKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Maintenance-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(h.cfg.MaintenanceKey)) != 1 {
			respondError(w, http.StatusForbidden, "maintenance key required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
