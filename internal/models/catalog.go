// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package models

// TableInfo describes one table or view in the session.
type TableInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"` // BASE TABLE or VIEW
	Columns int    `json:"columns"`
}

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// TableDescription is the response of the table describe endpoint.
type TableDescription struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}

// Driver is a GDAL vector driver available to ST_Read.
type Driver struct {
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name"`
	CanCreate bool   `json:"can_create"`
	CanCopy   bool   `json:"can_copy"`
	CanOpen   bool   `json:"can_open"`
	HelpURL   string `json:"help_url,omitempty"`
}

// Measure is the area and length DuckDB reports for a demo geometry.
type Measure struct {
	Kind     string  `json:"kind"`
	Geometry string  `json:"geometry"`
	Area     float64 `json:"area"`
	Length   float64 `json:"length"`
}

// AdminName is one selectable boundary name: Label is for display,
// Value is the exact stored name used in queries.
type AdminName struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
