/*
server.go - HTTP router and middleware configuration

ROUTER: chi

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the traveler/provider frontend

ROUTE GROUPS:
  /api/packages/*   Package normalization
  /api/bookings/*   Checkout, fulfillment status, payouts
  /api/settlements  Flattened payouts
  /api/dashboard    Provider summary
  /api/scenarios/*  Demo scenarios (dev only)
  /healthz          Store reachability
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/packages/parse", h.ParsePackage)

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", h.ListBookings)
			r.Post("/", h.Book)
			r.Get("/{id}", h.GetBooking)
			r.Put("/{id}/status", h.UpdateStatus)
			r.Post("/{id}/settlements/release", h.ReleaseProviderSettlements)
			r.Post("/{id}/settlements/{settlementID}/release", h.ReleaseSettlement)
		})

		r.Get("/settlements", h.ListSettlements)
		r.Get("/dashboard", h.Dashboard)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
