// Package httpapi assembles the HTTP surface: middleware chain, health and
// metrics endpoints, and the registration routes.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clubreg/internal/registration/handler"
	"clubreg/pkg/platform/middleware/admin"
	"clubreg/pkg/platform/middleware/metadata"
	"clubreg/pkg/platform/middleware/request"
	"clubreg/pkg/platform/middleware/requesttime"
)

// HealthChecker reports whether a backing resource is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router needs.
type Deps struct {
	Registrations *handler.Handler
	Logger        *slog.Logger

	// AdminToken guards the decision and delete endpoints. Empty disables
	// the guard; only tests and local development run without one.
	AdminToken string

	// Checkers are probed by the readiness endpoint, keyed by resource name.
	Checkers map[string]HealthChecker
}

// NewRouter wires the middleware chain and all endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", readiness(deps))
	r.Handle("/metrics", promhttp.Handler())

	deps.Registrations.Register(r)

	r.Group(func(r chi.Router) {
		if deps.AdminToken != "" {
			r.Use(admin.RequireAdminToken(deps.AdminToken, deps.Logger))
		}
		deps.Registrations.RegisterAdmin(r)
	})

	return r
}

func readiness(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for name, checker := range deps.Checkers {
			if err := checker.Health(ctx); err != nil {
				deps.Logger.WarnContext(ctx, "readiness check failed", "resource", name, "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded","resource":"` + name + `"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
