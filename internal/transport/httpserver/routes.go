package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"timebank-go/internal/config"
	"timebank-go/internal/transport/httpserver/handler"
	authmw "timebank-go/internal/transport/httpserver/middleware"
	"timebank-go/pkg/logger"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, profiles authmw.ProfileSaver, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(authmw.Metrics)
	r.Use(chimw.Timeout(cfg.HTTP.RequestTimeout))
	r.Use(authmw.NewCORS(cfg.HTTP.AllowedOrigins))

	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Common.Health)

		auth := authmw.NewJWTAuth(cfg.Auth, profiles, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/me", handlers.Common.Me)
			r.Get("/balance", handlers.Balances.GetBalance)

			r.Get("/entries", handlers.Entries.List)
			r.Post("/entries", handlers.Entries.Create)
			r.Delete("/entries/{id}", handlers.Entries.Delete)

			r.Get("/tasks", handlers.Tasks.ListActive)

			r.Post("/transfers", handlers.Balances.Transfer)
			r.Get("/transfers", handlers.Balances.History)
			r.Delete("/transfers", handlers.Balances.ResetHistory)

			r.Route("/admin", func(r chi.Router) {
				r.Use(authmw.RequireAdmin)

				r.Get("/entries/pending", handlers.Admin.ListPending)
				r.Post("/entries/cleanup", handlers.Admin.Cleanup)
				r.Post("/entries/{id}/approve", handlers.Admin.Approve)
				r.Post("/entries/{id}/reject", handlers.Admin.Reject)
				r.Patch("/entries/{id}/hours", handlers.Admin.UpdateHours)
				r.Delete("/entries/{id}", handlers.Admin.DeleteEntry)

				r.Get("/stats", handlers.Admin.UserStats)
				r.Get("/users/{id}/reconcile", handlers.Admin.Reconcile)
				r.Put("/users/{id}/balance", handlers.Admin.SetBalance)

				r.Get("/tasks", handlers.Tasks.ListAll)
				r.Post("/tasks", handlers.Tasks.Create)
				r.Patch("/tasks/{id}", handlers.Tasks.Update)
				r.Delete("/tasks/{id}", handlers.Tasks.Delete)
				r.Post("/tasks/{id}/deactivate", handlers.Tasks.Deactivate)
				r.Put("/tasks/{id}/weight", handlers.Tasks.SetWeight)
			})
		})
	})

	return r
}
