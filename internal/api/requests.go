// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package api

// Request structs carry parsed query parameters. The `query` tag names the
// parameter in validation messages.

// TableRequest selects a table by name.
type TableRequest struct {
	Name string `query:"name" validate:"required,identifier,max=64"`
}

// AdminsRequest selects an administrative level.
type AdminsRequest struct {
	Level int `query:"level" validate:"oneof=1 2"`
}

// AreaStatsRequest selects a department.
type AreaStatsRequest struct {
	Adm1 string `query:"adm1" validate:"required,admname,max=100"`
}

// OverviewMapRequest bounds the wealth points drawn on the overview map.
type OverviewMapRequest struct {
	Limit int `query:"limit" validate:"min=1,max=50000"`
}

// WithinMapRequest selects a municipality.
type WithinMapRequest struct {
	Adm2 string `query:"adm2" validate:"required,admname,max=100"`
}

// BuffersMapRequest selects a municipality and the buffer half-width.
type BuffersMapRequest struct {
	Adm2   string  `query:"adm2" validate:"required,admname,max=100"`
	Meters float64 `query:"meters" validate:"gt=0,lte=50000"`
}

// ZonalPopulationRequest selects a department and the buffer half-width.
type ZonalPopulationRequest struct {
	Adm1   string  `query:"adm1" validate:"required,admname,max=100"`
	Meters float64 `query:"meters" validate:"gt=0,lte=50000"`
}
