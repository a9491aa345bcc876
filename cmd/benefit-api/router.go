// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/benefitlab/benefit-engine/cmd/benefit-api/handlers"
	"github.com/benefitlab/benefit-engine/cmd/benefit-api/middleware"
	"github.com/benefitlab/benefit-engine/internal/config"
	"github.com/benefitlab/benefit-engine/internal/observability"
	"github.com/benefitlab/benefit-engine/pkg/engine"
)

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, eng *engine.Engine) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"benefit-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := eng.Ready(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	chatHandler := handlers.NewChatHandler(logger, eng)
	catalogHandler := handlers.NewCatalogHandler(logger, eng)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat", chatHandler.Chat)

		r.Route("/sessions/{userId}", func(r chi.Router) {
			r.Get("/", chatHandler.History)
			r.Delete("/", chatHandler.ClearSession)
		})

		r.Get("/brands", catalogHandler.Brands)
		r.Get("/categories", catalogHandler.Categories)
		r.Post("/offers", catalogHandler.Ingest)
	})

	return r
}
