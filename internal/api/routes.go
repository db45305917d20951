package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/microlearning/site-api/internal/metrics"
	"github.com/microlearning/site-api/internal/pkg/httputil"
)

// SetupRoutes configures all routes. hc may be nil in tests.
func SetupRoutes(h *Handlers, hc *HealthChecker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.PrometheusMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	if hc != nil {
		r.Get("/health", hc.HandleHealth)
		r.Get("/health/live", hc.HandleLiveness)
		r.Get("/health/ready", hc.HandleReadiness)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/contact", func(r chi.Router) {
			r.Post("/", h.SubmitContact)
			r.MethodNotAllowed(h.ContactMethodNotAllowed)
		})

		r.Post("/resend-confirmations", h.TriggerResend)
		r.Get("/resend-confirmations", h.ResendStatus)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.NotFound(w, "Not found")
	})

	return r
}
