package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/renewo/renewo-server/pkg/middleware"
	"github.com/renewo/renewo-server/pkg/observability"
)

// RouterOptions configures cross-cutting router behavior
type RouterOptions struct {
	// RateLimiter, when non-nil, is applied to every route
	RateLimiter *middleware.RateLimiter

	// HealthChecker, when non-nil, serves GET /health
	HealthChecker *observability.HealthChecker

	// AllowedOrigins for CORS; empty disables CORS handling
	AllowedOrigins []string
}

// SetupRoutes configures all API routes
func SetupRoutes(h *Handlers, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(observability.MetricsMiddleware)

	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware)
	}

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	if opts.HealthChecker != nil {
		r.Get("/health", opts.HealthChecker.HealthHandler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", h.ListSubscriptions)
			r.Post("/", h.CreateSubscription)
			r.Get("/totals", h.GetTotals)
			r.Get("/export", h.ExportCSV)
			r.Post("/sweep", h.TriggerSweep)
			r.Get("/{id}", h.GetSubscription)
			r.Patch("/{id}", h.UpdateSubscription)
			r.Delete("/{id}", h.DeleteSubscription)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/", h.UpdateSettings)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/authorization", h.GetNotificationAuthorization)
			r.Post("/authorization/request", h.RequestNotificationAuthorization)
		})

		r.Route("/entitlements", func(r chi.Router) {
			r.Get("/", h.GetEntitlements)
			r.Post("/refresh", h.RefreshEntitlements)
			r.Post("/purchase", h.PurchasePro)
			r.Post("/restore", h.RestorePurchases)
		})
	})

	return r
}
