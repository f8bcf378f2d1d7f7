package main

import (
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/authsvc/internal/auth"
	"github.com/crucial707/authsvc/internal/config"
	"github.com/crucial707/authsvc/internal/handlers"
	"github.com/crucial707/authsvc/internal/middleware"
)

// newRouter builds the HTTP handler. Tests call it with a sqlmock-backed service.
func newRouter(svc *auth.Service, schemaReady *atomic.Bool, cfg config.Config) http.Handler {
	authHandler := &handlers.AuthHandler{Auth: svc}
	healthHandler := &handlers.HealthHandler{Auth: svc, SchemaReady: schemaReady}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Tracing)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	return r
}
