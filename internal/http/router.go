package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/fintrack/internal/http/analytics"
	"github.com/MrJamesThe3rd/fintrack/internal/http/auth"
	"github.com/MrJamesThe3rd/fintrack/internal/http/budget"
	"github.com/MrJamesThe3rd/fintrack/internal/http/category"
	"github.com/MrJamesThe3rd/fintrack/internal/http/export"
	"github.com/MrJamesThe3rd/fintrack/internal/http/importcsv"
	"github.com/MrJamesThe3rd/fintrack/internal/http/matching"
	authmw "github.com/MrJamesThe3rd/fintrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/fintrack/internal/http/respond"
	"github.com/MrJamesThe3rd/fintrack/internal/http/transaction"
)

type HealthChecker interface {
	Check(ctx context.Context) error
}

type Handlers struct {
	Auth         *auth.Handler
	Transactions *transaction.Handler
	Import       *importcsv.Handler
	Export       *export.Handler
	Categories   *category.Handler
	Budgets      *budget.Handler
	Analytics    *analytics.Handler
	Matching     *matching.Handler
}

type Options struct {
	AllowedOrigins []string
	Resolver       authmw.Resolver
	Health         HealthChecker
}

func New(h Handlers, opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", healthz(opts.Health))

	router.Group(func(r chi.Router) {
		h.Auth.Routes(r)
	})

	router.Group(func(r chi.Router) {
		r.Use(authmw.Authenticate(opts.Resolver))

		r.Route("/transactions", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Transactions.Routes(r)
			})

			h.Export.Routes(r)
			h.Import.Routes(r)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Categories.Routes(r)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Budgets.Routes(r)
		})

		r.Route("/analytics", h.Analytics.Routes)

		r.Route("/matching", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Matching.Routes(r)
		})
	})

	return router
}

func healthz(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checker.Check(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})

			return
		}

		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
