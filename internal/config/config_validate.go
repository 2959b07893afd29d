// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/geocookbook/internal/logging"
)

var validLogFormats = map[string]bool{"json": true, "console": true}

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateDatasets(); err != nil {
		return err
	}
	if err := c.validateZonal(); err != nil {
		return err
	}
	if err := c.validateMap(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty (use :memory: for an in-memory session)")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0, got %d", c.Database.Threads)
	}
	if c.Database.ExtensionTimeout <= 0 {
		return fmt.Errorf("DUCKDB_EXTENSION_TIMEOUT must be positive, got %v", c.Database.ExtensionTimeout)
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("DUCKDB_QUERY_TIMEOUT must be positive, got %v", c.Database.QueryTimeout)
	}
	for _, ext := range c.Database.Extensions {
		if !isIdentifier(ext) {
			return fmt.Errorf("DUCKDB_EXTENSIONS contains invalid extension name %q", ext)
		}
	}
	return nil
}

func (c *Config) validateDatasets() error {
	if !c.Datasets.LoadOnStartup {
		return nil
	}
	sources := map[string]string{
		"RWI_CSV":                c.Datasets.WealthIndexCSV,
		"BOUNDARIES_ADM2_SOURCE": c.Datasets.BoundariesAdm2,
		"BOUNDARIES_ADM0_SOURCE": c.Datasets.BoundariesAdm0,
	}
	for name, src := range sources {
		if err := validateSource(src, name); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateZonal() error {
	if err := validateSource(c.Zonal.RasterPath, "POPULATION_RASTER"); err != nil {
		return err
	}
	if c.Zonal.BufferMeters <= 0 {
		return fmt.Errorf("ZONAL_BUFFER_METERS must be positive, got %v", c.Zonal.BufferMeters)
	}
	if c.Zonal.BreakerFailures > 0 && c.Zonal.BreakerTimeout <= 0 {
		return fmt.Errorf("ZONAL_BREAKER_TIMEOUT must be positive, got %v", c.Zonal.BreakerTimeout)
	}
	return nil
}

func (c *Config) validateMap() error {
	if c.Map.MinZoom < 0 || c.Map.MinZoom > 22 {
		return fmt.Errorf("MAP_MIN_ZOOM must be between 0 and 22, got %d", c.Map.MinZoom)
	}
	if c.Map.CenterLat < -90 || c.Map.CenterLat > 90 {
		return fmt.Errorf("MAP_CENTER_LATITUDE must be between -90 and 90, got %v", c.Map.CenterLat)
	}
	if c.Map.CenterLon < -180 || c.Map.CenterLon > 180 {
		return fmt.Errorf("MAP_CENTER_LONGITUDE must be between -180 and 180, got %v", c.Map.CenterLon)
	}
	if c.Map.PointLimit <= 0 {
		return fmt.Errorf("MAP_POINT_LIMIT must be positive, got %d", c.Map.PointLimit)
	}
	if c.Map.BufferMeters <= 0 {
		return fmt.Errorf("MAP_BUFFER_METERS must be positive, got %v", c.Map.BufferMeters)
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("CACHE_SIZE must be positive, got %d", c.Cache.Size)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %v", c.Cache.TTL)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateSource accepts a non-empty local path or an http(s) URL with a host.
func validateSource(src, fieldName string) error {
	if strings.TrimSpace(src) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if !strings.Contains(src, "://") {
		return nil
	}
	u, err := url.Parse(src)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "s3" {
		return fmt.Errorf("%s scheme must be http, https or s3, got: %s", fieldName, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}
