// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

/*
Package api serves the geospatial cookbook over HTTP.

Handlers are split by concern:
  - handlers.go: Handler, the Session interface it depends on, constructor
  - handlers_helpers.go: JSON envelopes, parameter parsing, validation glue
  - handlers_health.go: liveness and readiness
  - handlers_catalog.go: tables, drivers, geometry measures, admin names, area stats
  - handlers_maps.go: map documents (overview, points within, buffers)
  - handlers_zonal.go: population near negative wealth points
  - errors.go: error to status/code mapping
  - chi_router.go, chi_middleware.go: routes and the middleware stack

Every response uses the models.APIResponse envelope. Map endpoints put a
mapview.Map in data.

# Error mapping

	database.ErrNotFound                     404 NOT_FOUND
	validation failure, ErrInvalidArgument   400 VALIDATION_ERROR
	*geometry.MalformedGeometryError         422 MALFORMED_GEOMETRY
	*zonal.RasterUnavailableError            503 RASTER_UNAVAILABLE
	ErrSpatialUnavailable, UDF missing       503 SERVICE_UNAVAILABLE
	context deadline exceeded                504 TIMEOUT
	anything else                            500 DATABASE_ERROR
*/
package api
