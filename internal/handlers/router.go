package handlers

import (
	"github.com/clinote/clinote-backend/internal/config"
	"github.com/clinote/clinote-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps bundles everything the HTTP surface needs
type RouterDeps struct {
	Auth       *AuthHandler
	Encounters *EncounterHandler
	AI         *AIHandler
	Health     *HealthHandler
	Authn      *middleware.Authenticator
}

// NewRouter builds the chi router. Registration, login and the ops
// probes are the only routes reachable without a valid token.
func NewRouter(cfg *config.Config, deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Compress(5))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", deps.Health.Health)
	r.Get("/ready", deps.Health.Ready)

	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", deps.Auth.Register)
		r.Post("/login", deps.Auth.Login)
		r.With(deps.Authn.Require).Get("/me", deps.Auth.Me)
	})

	r.Route("/encounters", func(r chi.Router) {
		r.Use(deps.Authn.Require)

		r.Post("/", deps.Encounters.Create)
		r.Get("/", deps.Encounters.List)
		r.Get("/{encounterID}", deps.Encounters.Get)
		r.Put("/{encounterID}", deps.Encounters.Update)
		r.Post("/{encounterID}/sign", deps.Encounters.Sign)
		r.Post("/{encounterID}/export", deps.Encounters.Export)
		r.Delete("/{encounterID}", deps.Encounters.Delete)
		r.Get("/{encounterID}/audit", deps.Encounters.AuditTrail)
	})

	r.Route("/ai", func(r chi.Router) {
		r.Use(deps.Authn.Require)

		r.Post("/generate-note", deps.AI.GenerateNote)
	})

	return r
}
