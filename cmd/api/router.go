package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"bookworld/internal/auth"
	"bookworld/internal/catalog"
	"bookworld/internal/config"
	"bookworld/internal/httpx"
	"bookworld/internal/readinglist"
)

type routerDeps struct {
	logger      *slog.Logger
	rateLimiter *httpx.RateLimitMiddleware
	ready       func(ctx context.Context) error
	catalog     *catalog.HTTPHandler
	auth        *auth.HTTPHandler
	lists       *readinglist.HTTPHandler
}

func newRouter(cfg *config.Server, d routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.AccessLogMiddleware(d.logger))
	r.Use(httpx.RecoveryMiddleware(d.logger))
	r.Use(httpx.SecurityHeadersMiddleware(cfg.IsProduction()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.StripSlashes)
	r.Use(httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := d.ready(ctx); err != nil {
			httpx.JSONError(w, r, http.StatusServiceUnavailable, "NOT_READY", "Database not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(d.rateLimiter.Middleware)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/search", d.catalog.Search)
			r.Get("/home", d.catalog.Home)
			r.Get("/works/{workId}", d.catalog.GetWork)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.auth.Register)
			r.Post("/login", d.auth.Login)
			r.With(httpx.AuthMiddleware(cfg.JWTSecret)).Get("/me", d.auth.Me)
		})

		r.Route("/lists", func(r chi.Router) {
			r.Use(httpx.AuthMiddleware(cfg.JWTSecret))
			r.Get("/", d.lists.List)
			r.Post("/", d.lists.Upsert)
			r.Delete("/{workId}", d.lists.Remove)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}
