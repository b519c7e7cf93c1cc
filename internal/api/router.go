// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rshemet/cactus-dashboard/internal/middleware"
)

// Rate limits per client IP. Dashboard responses are served from the
// result cache most of the time, so the limit can stay generous; health
// is polled by monitors and gets its own wider budget.
const (
	rateLimitRequests       = 300
	rateLimitWindow         = time.Minute
	rateLimitHealthRequests = 1000
)

// NewRouter wires the HTTP routes and middleware stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order. CORS must be
	// global so OPTIONS preflight requests are answered before routing.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "ETag"},
		MaxAge:         300,
	}))

	// Health endpoint with a permissive limit for frequent monitoring.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rateLimitHealthRequests, rateLimitWindow))
		r.Use(middleware.SecurityHeaders)
		r.Get("/live", handler.HealthLive)
		r.Get("/ready", handler.HealthReady)
		r.Get("/", handler.Health)
	})

	// Dashboard endpoints.
	r.Route("/api/v1/dashboard", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rateLimitRequests, rateLimitWindow))
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.PrometheusMetrics)

		r.Get("/", handler.Dashboard)
		r.Get("/selectors", handler.Selectors)
	})

	// Observability.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
