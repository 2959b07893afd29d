// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/geocookbook/config.yaml",
	"/etc/geocookbook/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default dataset locations. The boundary files are the Colombian
// administrative layers published with the WFP PRISM app.
const (
	DefaultWealthIndexCSV = "./col_relative_wealth_index.csv"
	DefaultBoundariesAdm2 = "https://raw.githubusercontent.com/WFP-VAM/prism-app/refs/heads/master/frontend/public/data/colombia/col_municipios.json"
	DefaultBoundariesAdm0 = "https://raw.githubusercontent.com/WFP-VAM/prism-app/refs/heads/master/frontend/public/data/colombia/admin-boundary-unified-polygon.json"
	DefaultRasterPath     = "./col_ppp_2020_1km_Aggregated_UNadj.tif"
	DefaultTiles          = "Cartodb dark_matter"
)

// Defaults returns the built-in configuration before any file or
// environment overrides.
func Defaults() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:             ":memory:",
			MaxMemory:        "1GB",
			Threads:          0,
			SpatialOptional:  false,
			Extensions:       []string{"spatial", "httpfs"},
			ExtensionTimeout: 30 * time.Second,
			QueryTimeout:     2 * time.Minute,
		},
		Datasets: DatasetsConfig{
			LoadOnStartup:  true,
			WealthIndexCSV: DefaultWealthIndexCSV,
			BoundariesAdm2: DefaultBoundariesAdm2,
			BoundariesAdm0: DefaultBoundariesAdm0,
		},
		Zonal: ZonalConfig{
			RasterPath:      DefaultRasterPath,
			AllTouched:      false,
			BufferMeters:    2400,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Map: MapConfig{
			Tiles:        DefaultTiles,
			MinZoom:      5,
			CenterLat:    10.982781372175843,
			CenterLon:    -74.82745259291546,
			PointLimit:   3000,
			BufferMeters: 1200,
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    256,
			TTL:     10 * time.Minute,
		},
		Server: ServerConfig{
			Port:            3857,
			Host:            "0.0.0.0",
			Timeout:         60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
// defaults, then the optional YAML file, then environment variables.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// DUCKDB_PATH -> database.path, POPULATION_RASTER -> zonal.raster_path, ...
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from env.
var sliceConfigPaths = []string{
	"database.extensions",
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unmapped variables are ignored so the process environment cannot pollute config.
var envMappings = map[string]string{
	"duckdb_path":              "database.path",
	"duckdb_max_memory":        "database.max_memory",
	"duckdb_threads":           "database.threads",
	"duckdb_spatial_optional":  "database.spatial_optional",
	"duckdb_extensions":        "database.extensions",
	"duckdb_extension_timeout": "database.extension_timeout",
	"duckdb_query_timeout":     "database.query_timeout",

	"datasets_load_on_startup": "datasets.load_on_startup",
	"rwi_csv":                  "datasets.wealth_index_csv",
	"boundaries_adm2_source":   "datasets.boundaries_adm2",
	"boundaries_adm0_source":   "datasets.boundaries_adm0",

	"population_raster":      "zonal.raster_path",
	"zonal_all_touched":      "zonal.all_touched",
	"zonal_buffer_meters":    "zonal.buffer_meters",
	"zonal_breaker_failures": "zonal.breaker_failures",
	"zonal_breaker_timeout":  "zonal.breaker_timeout",

	"map_tiles":            "map.tiles",
	"map_min_zoom":         "map.min_zoom",
	"map_center_latitude":  "map.center_latitude",
	"map_center_longitude": "map.center_longitude",
	"map_point_limit":      "map.point_limit",
	"map_buffer_meters":    "map.buffer_meters",

	"cache_enabled": "cache.enabled",
	"cache_size":    "cache.size",
	"cache_ttl":     "cache.ttl",

	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - POPULATION_RASTER -> zonal.raster_path
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
