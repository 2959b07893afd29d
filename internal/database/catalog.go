// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/geocookbook/internal/metrics"
	"github.com/tomtom215/geocookbook/internal/models"
)

// Tables lists the tables and views of the main schema, ordered by name.
func (s *Session) Tables(ctx context.Context) ([]models.TableInfo, error) {
	result, err := s.query(ctx, "tables", "", `
		SELECT t.table_name, t.table_type, COUNT(c.column_name) AS columns
		FROM information_schema.tables t
		LEFT JOIN information_schema.columns c
			ON c.table_schema = t.table_schema AND c.table_name = t.table_name
		WHERE t.table_schema = 'main'
		GROUP BY t.table_name, t.table_type
		ORDER BY t.table_name`)
	if err != nil {
		return nil, err
	}

	tables := make([]models.TableInfo, 0, len(result.Rows))
	for _, row := range result.Rows {
		tables = append(tables, models.TableInfo{
			Name:    asString(row["table_name"]),
			Type:    asString(row["table_type"]),
			Columns: int(asInt64(row["columns"])),
		})
	}
	return tables, nil
}

// Describe returns the columns of table in declaration order.
// An unknown table yields ErrNotFound.
func (s *Session) Describe(ctx context.Context, table string) ([]models.ColumnInfo, error) {
	result, err := s.query(ctx, "describe", table, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'main' AND table_name = ?
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	if len(result.Rows) == 0 {
		return nil, fmt.Errorf("table %q: %w", table, ErrNotFound)
	}

	columns := make([]models.ColumnInfo, 0, len(result.Rows))
	for _, row := range result.Rows {
		columns = append(columns, models.ColumnInfo{
			Name:     asString(row["column_name"]),
			Type:     asString(row["data_type"]),
			Nullable: asString(row["is_nullable"]) == "YES",
		})
	}
	return columns, nil
}

// Drivers lists the GDAL drivers the spatial extension can read through ST_Read.
func (s *Session) Drivers(ctx context.Context) ([]models.Driver, error) {
	if err := s.requireSpatial(); err != nil {
		return nil, err
	}

	result, err := s.query(ctx, "drivers", "", `
		SELECT short_name, long_name, can_create, can_copy, can_open, help_url
		FROM ST_Drivers()
		ORDER BY short_name`)
	if err != nil {
		return nil, err
	}

	drivers := make([]models.Driver, 0, len(result.Rows))
	for _, row := range result.Rows {
		drivers = append(drivers, models.Driver{
			ShortName: asString(row["short_name"]),
			LongName:  asString(row["long_name"]),
			CanCreate: asBool(row["can_create"]),
			CanCopy:   asBool(row["can_copy"]),
			CanOpen:   asBool(row["can_open"]),
			HelpURL:   asString(row["help_url"]),
		})
	}
	return drivers, nil
}

// GeometryMeasures computes ST_Area and ST_Length for a point, a 3-4-5 line
// and a unit right triangle, the three basic geometry kinds.
func (s *Session) GeometryMeasures(ctx context.Context) ([]models.Measure, error) {
	if err := s.requireSpatial(); err != nil {
		return nil, err
	}

	result, err := s.query(ctx, "measures", "", `
		WITH geoms AS (
			SELECT 1 AS ord, 'point' AS kind, ST_Point(0.0, 0.0) AS geom
			UNION ALL
			SELECT 2, 'linestring', ST_MakeLine([ST_Point(0, 0), ST_Point(3, 4)])
			UNION ALL
			SELECT 3, 'polygon', ST_MakePolygon(ST_MakeLine([ST_Point(0, 0), ST_Point(1, 0), ST_Point(1, 1), ST_Point(0, 0)]))
		)
		SELECT kind, ST_AsText(geom) AS geometry, ST_Area(geom) AS area, ST_Length(geom) AS length
		FROM geoms
		ORDER BY ord`)
	if err != nil {
		return nil, err
	}
	metrics.RecordSpatialOperation("measure")

	measures := make([]models.Measure, 0, len(result.Rows))
	for _, row := range result.Rows {
		measures = append(measures, models.Measure{
			Kind:     asString(row["kind"]),
			Geometry: asString(row["geometry"]),
			Area:     asFloat64(row["area"]),
			Length:   asFloat64(row["length"]),
		})
	}
	return measures, nil
}
