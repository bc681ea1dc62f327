package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/campuspark/parking-reservation/internal/booking"
	"github.com/campuspark/parking-reservation/internal/config"
	"github.com/campuspark/parking-reservation/internal/session"
	"github.com/campuspark/parking-reservation/internal/slot"
	"github.com/campuspark/parking-reservation/internal/user"
)

type RouterConfig struct {
	Bookings *booking.Service
	Users    *user.Service
	Slots    slot.Repository
	Sessions *session.Store
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Config   config.Config
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	auth := newAuthMiddleware(cfg.Sessions)

	authH := &authHandlers{users: cfg.Users, sessions: cfg.Sessions, cfg: cfg.Config}
	bookingH := &bookingHandlers{bookings: cfg.Bookings}
	dashH := &dashboardHandlers{bookings: cfg.Bookings, users: cfg.Users, slots: cfg.Slots}

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Config.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Account endpoints
	r.Post("/signup", authH.signup)
	r.Post("/login", authH.login)
	r.Post("/logout", authH.logout)
	r.Post("/forgot", authH.resetPassword)

	// User endpoints
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Post("/change-password", authH.changePassword)
		r.Post("/bookings", bookingH.createBooking)
		r.Post("/bookings/{id}/cancel", bookingH.cancelBooking)
		r.Get("/me/bookings", bookingH.myBookings)
		r.Post("/api/check-availability", bookingH.checkAvailability)
	})

	// Admin endpoints
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/api/dashboard/slots", dashH.slotOverview)
		r.Post("/api/dashboard/bookings", dashH.addBooking)
		r.Delete("/api/dashboard/bookings/{id}", dashH.cancelBooking)
		r.Post("/api/dashboard/bookings/{id}/cancel", dashH.cancelBooking)
		r.Get("/api/dashboard/users", dashH.listUsers)
		r.Delete("/api/dashboard/users/{username}", dashH.deleteUser)
		r.Post("/api/dashboard/admins", dashH.createAdmin)
		r.Post("/api/admin/slots/rename", dashH.renameSlots)
	})

	return r
}
