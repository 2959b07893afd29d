// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

// Package services adapts server components to suture.Service.
//
// HTTPServerService runs an *http.Server and shuts it down gracefully when
// the supervisor stops. DatasetService loads the configured datasets into
// the DuckDB session once, retrying transient failures.
package services
