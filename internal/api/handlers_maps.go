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
	"github.com/tomtom215/geocookbook/internal/geometry"
	"github.com/tomtom215/geocookbook/internal/logging"
	"github.com/tomtom215/geocookbook/internal/mapview"
)

// Zoom levels of the municipality maps.
const (
	withinMapZoom  = 7
	buffersMapZoom = 12
)

// Layer names shared with the map client.
const (
	layerBoundaries = "boundaries"
	layerBoundary   = "boundary"
	layerWealth     = "rwi"
	layerBuffers    = "buffers"
)

// mapLayer is one layer to add to a map document.
type mapLayer struct {
	name   string
	table  *geometry.Table
	marker mapview.Marker
}

// MapOverview draws every boundary plus up to limit wealth points,
// centred on the configured location.
func (h *Handler) MapOverview(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	start := time.Now()

	limit, apiErr := getIntParam(r, "limit", h.config.Map.PointLimit)
	if apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}
	req := OverviewMapRequest{Limit: limit}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}

	h.serveMap(w, r, start, cache.GenerateKey("map_overview", req), func(ctx context.Context) (*mapview.Map, error) {
		boundaries, err := h.session.AllBoundariesLayer(ctx)
		if err != nil {
			return nil, err
		}
		wealth, err := h.session.WealthLayer(ctx, req.Limit)
		if err != nil {
			return nil, err
		}
		center := mapview.LatLon{Lat: h.config.Map.CenterLat, Lon: h.config.Map.CenterLon}
		return h.buildMap(h.config.Map.MinZoom, center,
			mapLayer{layerBoundaries, boundaries, mapview.MarkerDefault},
			mapLayer{layerWealth, wealth, mapview.MarkerCircle},
		)
	})
}

// MapWithin draws a municipality and the wealth points inside it,
// centred on its centroid.
func (h *Handler) MapWithin(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	start := time.Now()

	req := WithinMapRequest{Adm2: getStringParam(r, "adm2")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}

	h.serveMap(w, r, start, cache.GenerateKey("map_within", req), func(ctx context.Context) (*mapview.Map, error) {
		lat, lon, err := h.session.Centroid(ctx, req.Adm2)
		if err != nil {
			return nil, err
		}
		boundary, err := h.session.BoundaryLayer(ctx, req.Adm2)
		if err != nil {
			return nil, err
		}
		points, err := h.session.PointsWithin(ctx, req.Adm2)
		if err != nil {
			return nil, err
		}
		return h.buildMap(withinMapZoom, mapview.LatLon{Lat: lat, Lon: lon},
			mapLayer{layerBoundary, boundary, mapview.MarkerDefault},
			mapLayer{layerWealth, points, mapview.MarkerCircle},
		)
	})
}

// MapBuffers draws square buffers around the negative wealth points of a
// municipality.
func (h *Handler) MapBuffers(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	start := time.Now()

	meters, apiErr := getFloatParam(r, "meters", h.config.Map.BufferMeters)
	if apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}
	req := BuffersMapRequest{Adm2: getStringParam(r, "adm2"), Meters: meters}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}

	h.serveMap(w, r, start, cache.GenerateKey("map_buffers", req), func(ctx context.Context) (*mapview.Map, error) {
		lat, lon, err := h.session.Centroid(ctx, req.Adm2)
		if err != nil {
			return nil, err
		}
		buffers, err := h.session.NegativeWealthBuffers(ctx, req.Adm2, req.Meters)
		if err != nil {
			return nil, err
		}
		return h.buildMap(buffersMapZoom, mapview.LatLon{Lat: lat, Lon: lon},
			mapLayer{layerBuffers, buffers, mapview.MarkerDefault},
		)
	})
}

// serveMap answers with the cached map for key, building it with load on
// a miss.
func (h *Handler) serveMap(w http.ResponseWriter, r *http.Request, start time.Time, key string, load func(context.Context) (*mapview.Map, error)) {
	ctx, cancel := h.queryContext(r.Context())
	defer cancel()

	m, cached, err := h.mapCache.GetOrLoad(ctx, key, load)
	if err != nil {
		respondSessionError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Debug().
		Int("layers", len(m.Layers)).
		Int("features", m.FeatureCount()).
		Bool("cached", cached).
		Dur("duration", time.Since(start)).
		Msg("Served map document")

	respondSuccess(w, r, m, start)
}

func (h *Handler) buildMap(zoom int, center mapview.LatLon, layers ...mapLayer) (*mapview.Map, error) {
	m, err := mapview.New(h.config.Map.Tiles, zoom, center)
	if err != nil {
		return nil, err
	}
	for _, l := range layers {
		if err := m.AddLayer(l.name, l.table, l.marker); err != nil {
			return nil, err
		}
	}
	return m, nil
}
