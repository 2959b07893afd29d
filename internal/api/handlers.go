// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package api

import (
	"context"
	"time"

	"github.com/tomtom215/geocookbook/internal/cache"
	"github.com/tomtom215/geocookbook/internal/config"
	"github.com/tomtom215/geocookbook/internal/geometry"
	"github.com/tomtom215/geocookbook/internal/logging"
	"github.com/tomtom215/geocookbook/internal/mapview"
	"github.com/tomtom215/geocookbook/internal/models"
	"github.com/tomtom215/geocookbook/internal/zonal"
)

// Session is the part of *database.Session the handlers use.
type Session interface {
	Ping(ctx context.Context) error
	SpatialAvailable() bool
	HTTPFSAvailable() bool

	Tables(ctx context.Context) ([]models.TableInfo, error)
	Describe(ctx context.Context, table string) ([]models.ColumnInfo, error)
	Drivers(ctx context.Context) ([]models.Driver, error)
	GeometryMeasures(ctx context.Context) ([]models.Measure, error)

	AdminNames(ctx context.Context, level int) ([]models.AdminName, error)
	CountBoundariesInAdm1(ctx context.Context, adm1 string) (int64, error)
	CountNegativeWealth(ctx context.Context) (int64, error)
	Centroid(ctx context.Context, adm2 string) (lat, lon float64, err error)

	AllBoundariesLayer(ctx context.Context) (*geometry.Table, error)
	WealthLayer(ctx context.Context, limit int) (*geometry.Table, error)
	BoundaryLayer(ctx context.Context, adm2 string) (*geometry.Table, error)
	PointsWithin(ctx context.Context, adm2 string) (*geometry.Table, error)
	NegativeWealthBuffers(ctx context.Context, adm2 string, meters float64) (*geometry.Table, error)

	ZonalPopulation(ctx context.Context, adm1, rasterPath string, meters float64) ([]zonal.Result, error)
}

// Handler holds the dependencies of the API handlers.
type Handler struct {
	session   Session
	config    *config.Config
	version   string
	startTime time.Time

	// nil when caching is disabled
	mapCache   *cache.Cache[*mapview.Map]
	zonalCache *cache.Cache[*models.ZonalPopulationResponse]
}

// NewHandler creates a Handler serving session with the map, zonal and
// server settings of cfg.
//
//	handler := api.NewHandler(session, cfg, version)
//	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.Security))
//	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}
func NewHandler(session Session, cfg *config.Config, version string) *Handler {
	h := &Handler{
		session:   session,
		config:    cfg,
		version:   version,
		startTime: time.Now(),
	}
	if cfg != nil && cfg.Cache.Enabled {
		h.mapCache = cache.New[*mapview.Map]("maps", cfg.Cache.Size, cfg.Cache.TTL)
		h.zonalCache = cache.New[*models.ZonalPopulationResponse]("zonal", cfg.Cache.Size, cfg.Cache.TTL)
	}
	return h
}

// OnDatasetsLoaded drops every cached response. Register it as the dataset
// loader's completion callback so reloaded tables are never served stale.
func (h *Handler) OnDatasetsLoaded() {
	h.mapCache.Purge()
	h.zonalCache.Purge()
	logging.Info().Msg("Response caches cleared after dataset load")
}

// queryContext bounds a handler's database work by the server timeout.
func (h *Handler) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.config == nil || h.config.Server.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.config.Server.Timeout)
}
