// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

/*
Package main is the entry point of the geocookbook server.

The server holds one DuckDB session with the spatial extension loaded, the
Colombian relative wealth index as points, and the municipal and national
boundaries. It serves the cookbook's queries over a read-only JSON API:
catalog listings, map documents for the Leaflet client, and zonal
population sums under buffered negative-wealth points.

# Startup

 1. Configuration: koanf v2 (defaults, optional config.yaml, environment)
 2. Logging: zerolog, json or console
 3. Database: DuckDB session with spatial and httpfs
 4. Zonal function: apply_zonal_stats backed by GDAL, each raster path
    behind its own circuit breaker (ZONAL_BREAKER_FAILURES=0 disables it)
 5. Supervisor tree: dataset loader (data layer) and HTTP server (api layer)

# Supervision

	RootSupervisor ("geocookbook")
	├── DataSupervisor ("data-layer")
	│   └── DatasetService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Transient dataset failures (an unreachable remote CSV) are retried with
backoff while the API keeps answering. Each successful load clears the map
and zonal response caches (CACHE_ENABLED, CACHE_SIZE, CACHE_TTL).

# Signals

SIGINT and SIGTERM cancel the tree. The HTTP server drains for
server.shutdown_timeout, then the session is closed.

# Example

	export RWI_CSV=https://data.humdata.org/.../col_relative_wealth_index.csv
	export POPULATION_RASTER=/data/col_ppp_2020_1km_Aggregated_UNadj.tif
	./geocookbook
	curl 'localhost:3857/api/v1/zonal/population?adm1=ATLANTICO'
*/
package main
