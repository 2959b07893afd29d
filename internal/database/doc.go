// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

// Package database owns the DuckDB session behind the cookbook: extension
// loading, dataset ingestion, the cookbook's spatial queries and the
// registration of Go functions as SQL functions.
//
// # Overview
//
// A Session wraps one *sql.DB and one pinned *sql.Conn. DuckDB keeps
// loaded extensions and registered scalar functions per connection, so
// everything runs on the pinned connection, serialized by a mutex.
//
// Files:
//   - database.go: Session lifecycle (Open, Close, Ping), DSN, contexts
//   - database_extensions.go: hard timeouts, retries, local extension lookup
//   - database_extensions_core.go: table-driven INSTALL / LOAD / verify
//   - query.go: generic tabular queries and WKT table materialization
//   - catalog.go: tables, columns, GDAL drivers, geometry measures
//   - datasets.go: wealth index CSV and ST_Read boundary loaders
//   - cookbook.go: admin names, counts, centroids, map layers, buffers
//   - udf.go: apply_zonal_stats scalar UDF and ZonalPopulation
//
// # Spatial Extension
//
// Spatial is required unless DatabaseConfig.SpatialOptional is set. Without
// it, every spatial operation returns ErrSpatialUnavailable instead of a
// DuckDB catalog error.
//
// # Query Parameters
//
// Names and numbers are always bound as parameters. Dataset sources are
// arguments of table functions (read_csv, ST_Read), which DuckDB only
// accepts as literals; they are quoted with quoteLiteral.
//
// # Geometry Output
//
// Geometry leaves DuckDB as WKT text (ST_AsText) and is parsed by
// geometry.Materialize; DuckDB's internal GEOMETRY blob never crosses the
// driver boundary.
//
// # Example
//
//	session, err := database.Open(ctx, &cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	if err := session.LoadDatasets(ctx, cfg.Datasets); err != nil {
//	    return err
//	}
//	if err := session.RegisterZonalUDF(zonal.New(gdalraster.New())); err != nil {
//	    return err
//	}
//	results, err := session.ZonalPopulation(ctx, "CALDAS", cfg.Zonal.RasterPath, 2400)
package database
