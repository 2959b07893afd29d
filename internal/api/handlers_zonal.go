// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/geocookbook/internal/cache"
	"github.com/tomtom215/geocookbook/internal/logging"
	"github.com/tomtom215/geocookbook/internal/models"
)

// ZonalPopulation sums the population raster under the buffered negative
// wealth points of each municipality in a department.
func (h *Handler) ZonalPopulation(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	start := time.Now()

	meters, apiErr := getFloatParam(r, "meters", h.config.Zonal.BufferMeters)
	if apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}
	req := ZonalPopulationRequest{Adm1: getStringParam(r, "adm1"), Meters: meters}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}

	rasterPath := h.config.Zonal.RasterPath
	if rasterPath == "" {
		respondSessionError(w, r, ErrRasterNotConfigured)
		return
	}

	ctx, cancel := h.queryContext(r.Context())
	defer cancel()

	key := cache.GenerateKey("zonal_population", map[string]interface{}{
		"adm1":   req.Adm1,
		"meters": req.Meters,
		"raster": rasterPath,
	})
	resp, cached, err := h.zonalCache.GetOrLoad(ctx, key, func(ctx context.Context) (*models.ZonalPopulationResponse, error) {
		results, err := h.session.ZonalPopulation(ctx, req.Adm1, rasterPath, req.Meters)
		if err != nil {
			return nil, err
		}
		return models.NewZonalPopulationResponse(req.Adm1, req.Meters, results), nil
	})
	if err != nil {
		respondSessionError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("adm1", req.Adm1).
		Int("municipalities", len(resp.Results)).
		Int64("total", resp.Total).
		Bool("cached", cached).
		Dur("duration", time.Since(start)).
		Msg("Computed zonal population")

	respondSuccess(w, r, resp, start)
}
