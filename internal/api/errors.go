// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/geocookbook/internal/database"
	"github.com/tomtom215/geocookbook/internal/geometry"
	"github.com/tomtom215/geocookbook/internal/mapview"
	"github.com/tomtom215/geocookbook/internal/zonal"
)

// ErrRasterNotConfigured is returned by the zonal endpoint when no
// population raster is configured.
var ErrRasterNotConfigured = errors.New("zonal raster path is not configured")

// Error codes returned in APIError.Code.
const (
	codeValidation         = "VALIDATION_ERROR"
	codeNotFound           = "NOT_FOUND"
	codeMalformedGeometry  = "MALFORMED_GEOMETRY"
	codeRasterUnavailable  = "RASTER_UNAVAILABLE"
	codeServiceUnavailable = "SERVICE_UNAVAILABLE"
	codeTimeout            = "TIMEOUT"
	codeDatabase           = "DATABASE_ERROR"
	codeRateLimit          = "RATE_LIMIT_EXCEEDED"
	codeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
)

// classifyError maps a session error to an HTTP status, an error code and
// the message shown to the client. Internal errors get a generic message.
func classifyError(err error) (status int, code, message string) {
	var (
		malformed *geometry.MalformedGeometryError
		raster    *zonal.RasterUnavailableError
	)

	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, codeNotFound, err.Error()
	case errors.Is(err, database.ErrInvalidArgument),
		errors.Is(err, zonal.ErrEmptyGeometrySet),
		errors.Is(err, mapview.ErrInvalidView):
		return http.StatusBadRequest, codeValidation, err.Error()
	case errors.As(err, &malformed):
		return http.StatusUnprocessableEntity, codeMalformedGeometry, malformed.Error()
	case errors.As(err, &raster), errors.Is(err, zonal.ErrRotatedRaster):
		return http.StatusServiceUnavailable, codeRasterUnavailable, "population raster is unavailable"
	case errors.Is(err, ErrRasterNotConfigured),
		errors.Is(err, database.ErrSpatialUnavailable),
		errors.Is(err, database.ErrHTTPFSUnavailable),
		errors.Is(err, database.ErrZonalUDFNotRegistered),
		errors.Is(err, database.ErrSessionClosed):
		return http.StatusServiceUnavailable, codeServiceUnavailable, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeTimeout, "query timed out"
	default:
		return http.StatusInternalServerError, codeDatabase, "query failed"
	}
}
