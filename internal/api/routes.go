package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://app.geospark.io", "http://localhost:3000", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", h.HealthCheck)

	r.Route("/api/outreach", func(r chi.Router) {
		// Account pool
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Delete("/{id}", h.DeactivateAccount)
		})

		// Capacity reads and dry-run planning
		r.Route("/capacity", func(r chi.Router) {
			r.Get("/", h.GetCapacity)
			r.Post("/plan", h.PlanDistribution)
		})

		// Batch admission and dispatch
		r.Post("/admit", h.AdmitBatch)

		// Provider campaign passthrough
		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Get("/{id}/stats", h.GetCampaignStats)
			r.Post("/{id}/launch", h.LaunchCampaign)
			r.Post("/{id}/pause", h.PauseCampaign)
		})
	})

	return r
}
