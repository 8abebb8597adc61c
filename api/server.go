/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestLogger: Structured request logging via zap
  4. CORS:       Cross-origin requests for admin tooling

ROUTE GROUPS:
  /api/quotes         Quote pricing
  /api/plans/*        Plan catalog
  /api/reference/*    Reference data
  /api/snapshot       Snapshot inspection
  /api/admin/*        Operational endpoints
  /api/scenarios/*    Demo scenarios

SECURITY NOTE:
  No authentication middleware. The API is expected to sit behind an
  internal gateway.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/quotes", h.CreateQuote)

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Get("/{id}", h.GetPlan)
		})

		r.Route("/reference", func(r chi.Router) {
			r.Get("/value-bands", h.ListValueBands)
			r.Get("/capacity-bands", h.ListCapacityBands)
			r.Get("/vehicle-categories", h.ListVehicleCategories)
			r.Get("/vehicle-types", h.ListVehicleTypes)
			r.Get("/excess-types", h.ListExcessTypes)
			r.Get("/covers", h.ListCovers)
		})

		r.Get("/snapshot", h.GetSnapshot)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/refresh", h.AdminRefresh)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
