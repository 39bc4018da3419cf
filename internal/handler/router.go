package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blapoker/loyalty/internal/middleware"
)

// NewRouter builds the HTTP router for the loyalty service.
func NewRouter(h *Handler, sessions middleware.SessionVerifier) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover)
	r.Use(middleware.Logging)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(sessions))

		r.Post("/checkin", h.handleCheckIn)
		r.Get("/me", h.handleMe)
		r.Get("/me/coupons", h.handleMyCoupons)
		r.Get("/leaderboard", h.handleLeaderboard)
		r.Get("/events/users", h.handleUserEvents)
		r.Get("/events/me/coupons", h.handleMyCouponEvents)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/users", h.handleAdminUsers)
			r.Get("/users/{userID}/checkins", h.handleAdminUserCheckIns)
			r.Post("/users/{userID}/redeem", h.handleAdminRedeem)
			r.Delete("/users/{userID}/checkins/{checkInID}", h.handleAdminDeleteCheckIn)
			r.Post("/users/{userID}/deactivate", h.handleAdminDeactivate)
			r.Post("/users/{userID}/restore", h.handleAdminRestore)
			r.Post("/users/{userID}/rename", h.handleAdminRename)
			r.Get("/audit", h.handleAdminAudit)
		})
	})

	return r
}
