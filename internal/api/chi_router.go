// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/geocookbook/internal/middleware"
)

// compressionLevel is the gzip level for JSON and GeoJSON responses.
const compressionLevel = 5

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil middleware uses the defaults.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to every route, in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(RequestLogging())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, codeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, codeMethodNotAllowed, "Method not allowed", nil)
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom("health", RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(chimiddleware.Compress(compressionLevel, "application/json"))

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit("catalog"))
			r.Get("/tables", router.handler.Tables)
			r.Get("/tables/{name}", router.handler.DescribeTable)
			r.Get("/drivers", router.handler.Drivers)
			r.Get("/measures", router.handler.Measures)
			r.Get("/admins", router.handler.Admins)
			r.Get("/stats", router.handler.AreaStats)
		})

		r.Route("/maps", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit("maps"))
			r.Get("/overview", router.handler.MapOverview)
			r.Get("/within", router.handler.MapWithin)
			r.Get("/buffers", router.handler.MapBuffers)
		})

		r.Route("/zonal", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom("zonal", RateLimitZonal))
			r.Get("/population", router.handler.ZonalPopulation)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
