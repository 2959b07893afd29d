// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

/*
Package middleware provides HTTP middleware shared by the cookbook API.

  - RequestID: accepts or generates an X-Request-ID and seeds the logging
    context with request and correlation IDs.
  - PrometheusMetrics: counts requests and observes latency, labelled by the
    chi route pattern so map endpoints with arbitrary query strings share
    one series.

Both middlewares have the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
