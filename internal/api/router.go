// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amica-social/amica/internal/middleware"
)

// RouterConfig holds the HTTP-surface settings.
type RouterConfig struct {
	// CORSAllowedOrigins lists origins allowed to call the API.
	CORSAllowedOrigins []string

	// RateLimitRequests is the per-IP request budget per RateLimitWindow.
	// Zero disables the IP limiter.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// DefaultRouterConfig returns permissive development defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CORSAllowedOrigins: []string{"*"},
		RateLimitRequests:  600,
		RateLimitWindow:    time.Minute,
	}
}

// Router assembles the chi route tree.
type Router struct {
	handler *Handler
	cfg     RouterConfig
}

// NewRouter creates a router around the handler set.
func NewRouter(handler *Handler, cfg RouterConfig) *Router {
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = DefaultRouterConfig().CORSAllowedOrigins
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = DefaultRouterConfig().RateLimitWindow
	}
	return &Router{handler: handler, cfg: cfg}
}

// Setup builds the full route tree with the global middleware stack.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Compression)

	// Health endpoints skip the IP limiter so monitoring stays cheap.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if router.cfg.RateLimitRequests > 0 {
			r.Use(httprate.Limit(
				router.cfg.RateLimitRequests,
				router.cfg.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
			))
		}
		r.Use(middleware.PrometheusMetrics)

		r.Post("/messages", router.handler.SendMessage)

		r.Route("/conversations/{conversationID}", func(r chi.Router) {
			r.Get("/messages", router.handler.ListMessages)
			r.Post("/typing", router.handler.SetTyping)
			r.Get("/typing", router.handler.TypingUsers)
		})

		r.Route("/uploads", func(r chi.Router) {
			r.Post("/", router.handler.StartUpload)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Put("/chunks/{index}", router.handler.PutChunk)
				r.Post("/complete", router.handler.CompleteUpload)
				r.Delete("/", router.handler.CancelUpload)
				r.Get("/progress", router.handler.UploadProgress)
			})
		})

		r.Route("/media", func(r chi.Router) {
			r.Post("/", router.handler.IngestMedia)
			r.Get("/{mediaID}", router.handler.GetMedia)
			r.Get("/{mediaID}/info", router.handler.GetMediaRecord)
		})

		r.Get("/ws", router.handler.WebSocket)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
