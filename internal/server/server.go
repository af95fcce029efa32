// Package server wires repositories, services and handlers into the HTTP
// router.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/normrepo/nrs-go/internal/config"
	"github.com/normrepo/nrs-go/internal/crypto"
	"github.com/normrepo/nrs-go/internal/handler"
	"github.com/normrepo/nrs-go/internal/metrics"
	"github.com/normrepo/nrs-go/internal/middleware"
	"github.com/normrepo/nrs-go/internal/repository"
	"github.com/normrepo/nrs-go/internal/sequence"
	"github.com/normrepo/nrs-go/internal/service"
	"github.com/normrepo/nrs-go/internal/validation"
)

// NewRouter builds the full HTTP API on top of store. Metrics are
// registered on reg and exposed on /metrics. Background work started for
// the router stops when ctx is done.
func NewRouter(ctx context.Context, cfg config.Config, store *repository.Store, log *zap.Logger, reg *prometheus.Registry) (http.Handler, error) {
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return nil, err
	}

	tokens := crypto.NewTokenCodec(cfg.JWTSecret, cfg.JWTExpiry)
	val := validation.New()
	repos := store.Repos()

	authHandler := handler.NewAuthHandler(
		service.NewAuthService(repos.Users, crypto.NewPasswordHasher(), tokens), val, log)
	projectHandler := handler.NewProjectHandler(
		service.NewProjectService(repos.Projects), val, log)
	moduleHandler := handler.NewModuleHandler(
		service.NewModuleService(store, sequence.New(cfg.ModuleNamePrefix), m), val, log)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics(m))

	r.Get("/health", health(store))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst))
		r.Post("/users", authHandler.HandleRegister)
		r.Post("/users/login", authHandler.HandleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthGuard(tokens, log, m))

		r.Get("/user", authHandler.HandleMe)
		r.Put("/user", authHandler.HandleUpdateMe)
		r.Delete("/user", authHandler.HandleDeleteMe)
		r.Put("/user/password", authHandler.HandleChangePassword)

		r.Route("/project", func(r chi.Router) {
			r.Get("/", projectHandler.HandleList)
			r.Post("/", projectHandler.HandleCreate)

			r.Route("/{project_id}", func(r chi.Router) {
				r.Get("/", projectHandler.HandleGet)
				r.Put("/", projectHandler.HandleUpdate)
				r.Delete("/", projectHandler.HandleDelete)

				r.Get("/module", moduleHandler.HandleList)
				r.Post("/module", moduleHandler.HandleCreate)
				r.Get("/module/{module_id}", moduleHandler.HandleGet)
				r.Put("/module/{module_id}", moduleHandler.HandleUpdate)
				r.Delete("/module/{module_id}", moduleHandler.HandleDelete)
			})
		})
	})

	return r, nil
}

// health answers 200 "ok" while the database is reachable.
func health(store *repository.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
