// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package models

import "github.com/tomtom215/geocookbook/internal/zonal"

// HealthStatus is the readiness report.
type HealthStatus struct {
	Status            string  `json:"status"` // "healthy" or "degraded"
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	SpatialAvailable  bool    `json:"spatial_available"`
	HTTPFSAvailable   bool    `json:"httpfs_available"`
	Uptime            float64 `json:"uptime_seconds"`
}

// AdminNamesResponse lists the names of one administrative level.
type AdminNamesResponse struct {
	Level int         `json:"level"`
	Names []AdminName `json:"names"`
}

// AreaStats summarises a department: its municipality count and the number
// of negative relative wealth points across the whole dataset.
type AreaStats struct {
	Adm1                string `json:"adm1"`
	Municipalities      int64  `json:"municipalities"`
	NegativeWealthCount int64  `json:"negative_wealth_points"`
}

// ZonalPopulationResponse is the population near negative wealth points,
// per municipality of a department.
type ZonalPopulationResponse struct {
	Adm1         string         `json:"adm1"`
	BufferMeters float64        `json:"buffer_meters"`
	Total        int64          `json:"total"`
	Results      []zonal.Result `json:"results"`
}

// NewZonalPopulationResponse totals results.
func NewZonalPopulationResponse(adm1 string, meters float64, results []zonal.Result) *ZonalPopulationResponse {
	if results == nil {
		results = []zonal.Result{}
	}
	var total int64
	for _, r := range results {
		total += r.Sum
	}
	return &ZonalPopulationResponse{
		Adm1:         adm1,
		BufferMeters: meters,
		Total:        total,
		Results:      results,
	}
}
