package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/civiceye/civiceye/internal/auth"
	"github.com/civiceye/civiceye/internal/dashboard"
	"github.com/civiceye/civiceye/internal/identity"
	"github.com/civiceye/civiceye/internal/issues"
	"github.com/civiceye/civiceye/internal/observability"
	"github.com/civiceye/civiceye/internal/profiles"
	"github.com/civiceye/civiceye/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Resolver         *identity.Resolver
	AuthHandler      *auth.Handler
	ProfileHandler   *profiles.Handler
	IssueHandler     *issues.Handler
	DashboardHandler *dashboard.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with CivicEye defaults. Everything
// under /api except the auth endpoints sits behind the bearer credential
// middleware.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r)

			// Profile endpoints live under /api/auth for historical reasons
			// but require a resolved principal.
			r.Group(func(r chi.Router) {
				r.Use(identity.RequireAuth(params.Resolver, params.Logger))
				params.ProfileHandler.MountRoutes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(identity.RequireAuth(params.Resolver, params.Logger))
			r.Route("/issues", params.IssueHandler.MountRoutes)
			r.Route("/dashboard", params.DashboardHandler.MountRoutes)
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
