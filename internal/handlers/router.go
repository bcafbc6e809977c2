package handlers

import (
	"log/slog"
	"net/http"

	"finance-tracker/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterConfig holds the optional collaborators of the router.
type RouterConfig struct {
	Logger            *slog.Logger
	Gatherer          prometheus.Gatherer
	StatusRecorder    StatusRecorder
	Pinger            Pinger
	AuthRatePerMinute int
}

// NewRouter builds the JSON API.
//
// Middleware order: Recovery → Logging, with the login rate limit on
// register and login and the session check on everything under /api
// that needs a user.
func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	authRate := cfg.AuthRatePerMinute
	if authRate == 0 {
		authRate = 10
	}

	r := chi.NewRouter()
	r.Use(RecoveryMiddleware)
	r.Use(LoggingMiddleware(logger, cfg.StatusRecorder))

	r.Get("/healthz", Health(cfg.Pinger))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(cfg.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(PerMinute(authRate)))
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})
		r.Post("/logout", h.Logout)
		r.Get("/categories", h.Categories)
		r.Get("/theme", h.GetTheme)
		r.Put("/theme", h.PutTheme)

		// Session required
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/session", h.Session)
			r.Get("/dashboard", h.Dashboard)
			r.Get("/statistics", h.Statistics)

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", h.ListTransactions)
				r.Post("/", h.CreateTransaction)
				r.Post("/undo", h.UndoDelete)
				r.Get("/export", h.ExportTransactions)
				r.Delete("/{id}", h.DeleteTransaction)
			})
		})
	})

	return r
}
