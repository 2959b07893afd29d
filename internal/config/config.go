// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

// Package config loads geocookbook configuration with Koanf v2.
//
// Configuration Loading Order (highest priority wins):
//  1. Defaults: built-in values from defaultConfig()
//  2. Config File: optional YAML file (CONFIG_PATH or config.yaml)
//  3. Environment Variables: mapped by envTransformFunc
//
// Configuration Categories:
//   - Database: DuckDB session (path, memory, threads, extensions, timeouts)
//   - Datasets: vector sources loaded into the session (CSV points, ST_Read boundaries)
//   - Zonal: population raster and buffering used by zonal statistics
//   - Map: basemap tiles, default centre and zoom for map documents
//   - Server / Security: HTTP listener, CORS and rate limiting
//   - Logging: zerolog level and format
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//	session, err := database.Open(ctx, &cfg.Database)
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Datasets DatasetsConfig `koanf:"datasets"`
	Zonal    ZonalConfig    `koanf:"zonal"`
	Map      MapConfig      `koanf:"map"`
	Cache    CacheConfig    `koanf:"cache"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatabaseConfig holds DuckDB session settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`       // ":memory:" for an in-memory session
	MaxMemory string `koanf:"max_memory"` // DuckDB max_memory setting, e.g. "1GB"
	Threads   int    `koanf:"threads"`    // 0 = runtime.NumCPU()

	// SpatialOptional lets the session open without the spatial extension.
	// Spatial operations then fail with database.ErrSpatialUnavailable.
	SpatialOptional bool `koanf:"spatial_optional"`

	// Extensions installed and loaded on open, in order.
	Extensions []string `koanf:"extensions"`

	ExtensionTimeout time.Duration `koanf:"extension_timeout"`
	QueryTimeout     time.Duration `koanf:"query_timeout"`
}

// DatasetsConfig names the vector sources loaded into the session.
// Sources may be local paths or http(s) URLs (read through httpfs).
type DatasetsConfig struct {
	LoadOnStartup  bool   `koanf:"load_on_startup"`
	WealthIndexCSV string `koanf:"wealth_index_csv"`
	BoundariesAdm2 string `koanf:"boundaries_adm2"`
	BoundariesAdm0 string `koanf:"boundaries_adm0"`
}

// ZonalConfig holds zonal statistics settings.
type ZonalConfig struct {
	RasterPath   string  `koanf:"raster_path"`   // single-band population surface
	AllTouched   bool    `koanf:"all_touched"`   // include every touched cell, not only centre-in cells
	BufferMeters float64 `koanf:"buffer_meters"` // square buffer around negative-wealth points

	// Consecutive raster open failures before the breaker rejects opens
	// for BreakerTimeout. 0 disables the breaker.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// MapConfig holds defaults for generated map documents.
type MapConfig struct {
	Tiles        string  `koanf:"tiles"`
	MinZoom      int     `koanf:"min_zoom"`
	CenterLat    float64 `koanf:"center_latitude"`
	CenterLon    float64 `koanf:"center_longitude"`
	PointLimit   int     `koanf:"point_limit"`
	BufferMeters float64 `koanf:"buffer_meters"`
}

// CacheConfig controls the in-memory response cache for map documents and
// zonal results. Entries are purged whenever datasets are reloaded.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	Size    int           `koanf:"size"`
	TTL     time.Duration `koanf:"ttl"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json (production) or console (development).
	Format string `koanf:"format"`

	Caller bool `koanf:"caller"`
}

// Load loads configuration from defaults, the optional YAML file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
