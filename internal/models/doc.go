// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

/*
Package models defines the data structures shared by the database layer and
the HTTP API.

Key Components:

  - APIResponse, Metadata, APIError: the envelope every endpoint returns
  - TableInfo, ColumnInfo, Driver, Measure: session catalog entries
  - AdminName: a department or municipality name with its display label
  - HealthStatus, AreaStats, ZonalPopulationResponse: endpoint payloads

Geospatial layers are not modelled here. They travel as GeoJSON inside a
mapview.Map, and zonal sums as zonal.Result.
*/
package models
