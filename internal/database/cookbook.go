// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/geocookbook/internal/geometry"
	"github.com/tomtom215/geocookbook/internal/metrics"
	"github.com/tomtom215/geocookbook/internal/models"
)

// Admin levels accepted by AdminNames.
const (
	AdminLevel1 = 1 // department
	AdminLevel2 = 2 // municipality
)

// maxAdm2Names caps the municipality list, which feeds a picker.
const maxAdm2Names = 1000

// UTM zone 19N, metres. Buffers are built there and projected back.
const projectedCRS = "EPSG:32619"

// bufferedNegativeWealthSQL selects the square buffers around negative
// wealth points inside the selected boundaries. The caller supplies a
// selected_boundary CTE with adm_name and geom columns; the buffer distance
// is bound as the last parameter.
const bufferedNegativeWealthSQL = `
	intersected_rwi AS (
		SELECT selected_boundary.adm_name, rwi.rwi, rwi.geom AS geom
		FROM rwi, selected_boundary
		WHERE ST_Intersects(rwi.geom, selected_boundary.geom)
	), buffered_points AS (
		SELECT
			adm_name,
			rwi,
			ST_Transform(
				ST_Buffer(ST_Transform(geom, 'EPSG:4326', '` + projectedCRS + `', true), CAST(? AS DOUBLE), 16, 'CAP_SQUARE', 'JOIN_ROUND', 1.0),
				'` + projectedCRS + `',
				'EPSG:4326',
				true
			) AS geom
		FROM intersected_rwi
		WHERE rwi < 0
	)`

// AdminNames lists the distinct boundary names at level, ordered by name.
// Level 2 is capped at 1000 names.
func (s *Session) AdminNames(ctx context.Context, level int) ([]models.AdminName, error) {
	var query string
	switch level {
	case AdminLevel1:
		query = `SELECT DISTINCT ADM1_NAME AS name FROM boundaries WHERE ADM1_NAME IS NOT NULL ORDER BY name`
	case AdminLevel2:
		query = fmt.Sprintf(`SELECT DISTINCT ADM2_NAME AS name FROM boundaries WHERE ADM2_NAME IS NOT NULL ORDER BY name LIMIT %d`, maxAdm2Names)
	default:
		return nil, fmt.Errorf("%w: admin level must be 1 or 2, got %d", ErrInvalidArgument, level)
	}

	result, err := s.query(ctx, "admin_names", ViewBoundaries, query)
	if err != nil {
		return nil, err
	}

	names := make([]models.AdminName, 0, len(result.Rows))
	for _, row := range result.Rows {
		v := asString(row["name"])
		names = append(names, models.AdminName{Label: capitalize(v), Value: v})
	}
	return names, nil
}

// CountBoundariesInAdm1 counts the municipalities of one department.
func (s *Session) CountBoundariesInAdm1(ctx context.Context, adm1 string) (int64, error) {
	var n int64
	err := s.scalar(ctx, "count", ViewBoundaries, &n,
		`SELECT COUNT(*) FROM boundaries WHERE ADM1_NAME = ?`, adm1)
	return n, err
}

// CountNegativeWealth counts wealth index points below zero.
func (s *Session) CountNegativeWealth(ctx context.Context) (int64, error) {
	var n int64
	err := s.scalar(ctx, "count", TableWealthIndex, &n, `SELECT COUNT(*) FROM rwi WHERE rwi < 0`)
	return n, err
}

// Centroid returns the centroid of the named municipality as latitude,
// longitude. An unknown name yields ErrNotFound.
func (s *Session) Centroid(ctx context.Context, adm2 string) (lat, lon float64, err error) {
	if err := s.requireSpatial(); err != nil {
		return 0, 0, err
	}

	var pt struct{ lat, lon sql.NullFloat64 }
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	err = s.withConn("centroid", ViewBoundaries, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, `
			WITH t1 AS (
				SELECT ST_Centroid(geom) AS pt FROM boundaries WHERE ADM2_NAME = ? LIMIT 1
			) SELECT ST_Y(pt), ST_X(pt) FROM t1`, adm2).Scan(&pt.lat, &pt.lon)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("boundary %q: %w", adm2, ErrNotFound)
	}
	if err != nil {
		return 0, 0, err
	}
	if !pt.lat.Valid || !pt.lon.Valid {
		return 0, 0, fmt.Errorf("boundary %q has no geometry: %w", adm2, ErrNotFound)
	}
	metrics.RecordSpatialOperation("centroid")
	return pt.lat.Float64, pt.lon.Float64, nil
}

// BoundaryLayer returns the named municipality as a one-feature table.
func (s *Session) BoundaryLayer(ctx context.Context, adm2 string) (*geometry.Table, error) {
	if err := s.requireSpatial(); err != nil {
		return nil, err
	}
	table, err := s.spatialTable(ctx, "boundary_layer", ViewBoundaries,
		`SELECT * EXCLUDE geom, ST_AsText(geom) AS geometry FROM boundaries WHERE ADM2_NAME = ?`, adm2)
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("boundary %q: %w", adm2, ErrNotFound)
	}
	return table, nil
}

// AllBoundariesLayer returns every municipality.
func (s *Session) AllBoundariesLayer(ctx context.Context) (*geometry.Table, error) {
	if err := s.requireSpatial(); err != nil {
		return nil, err
	}
	return s.spatialTable(ctx, "boundary_layer", TableBoundariesAdm2,
		`SELECT * EXCLUDE geom, ST_AsText(geom) AS geometry FROM boundaries_adm2`)
}

// WealthLayer returns at most limit wealth index points.
func (s *Session) WealthLayer(ctx context.Context, limit int) (*geometry.Table, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidArgument, limit)
	}
	if err := s.requireSpatial(); err != nil {
		return nil, err
	}
	return s.spatialTable(ctx, "wealth_layer", TableWealthIndex,
		`SELECT rwi, ST_AsText(geom) AS geometry FROM rwi LIMIT ?`, limit)
}

// PointsWithin returns the wealth index points strictly within the named
// municipality.
func (s *Session) PointsWithin(ctx context.Context, adm2 string) (*geometry.Table, error) {
	if err := s.requireBoundary(ctx, adm2); err != nil {
		return nil, err
	}
	return s.spatialTable(ctx, "points_within", TableWealthIndex, `
		WITH selected_boundary AS (
			SELECT geom FROM boundaries WHERE ADM2_NAME = ?
		)
		SELECT rwi.rwi, ST_AsText(rwi.geom) AS geometry
		FROM rwi, selected_boundary
		WHERE ST_Within(rwi.geom, selected_boundary.geom)`, adm2)
}

// NegativeWealthBuffers returns a square buffer of the given half-width in
// metres around every negative wealth point intersecting the named
// municipality, in EPSG:4326.
func (s *Session) NegativeWealthBuffers(ctx context.Context, adm2 string, meters float64) (*geometry.Table, error) {
	if meters <= 0 {
		return nil, fmt.Errorf("%w: buffer must be positive, got %v", ErrInvalidArgument, meters)
	}
	if err := s.requireBoundary(ctx, adm2); err != nil {
		return nil, err
	}
	return s.spatialTable(ctx, "buffers", TableWealthIndex, `
		WITH selected_boundary AS (
			SELECT ADM2_NAME AS adm_name, geom FROM boundaries WHERE ADM2_NAME = ?
		), `+bufferedNegativeWealthSQL+`
		SELECT rwi, ST_AsText(geom) AS geometry FROM buffered_points`, adm2, meters)
}

// requireBoundary checks that spatial is loaded and adm2 names a boundary.
func (s *Session) requireBoundary(ctx context.Context, adm2 string) error {
	if err := s.requireSpatial(); err != nil {
		return err
	}
	var n int64
	if err := s.scalar(ctx, "count", ViewBoundaries, &n,
		`SELECT COUNT(*) FROM boundaries WHERE ADM2_NAME = ?`, adm2); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("boundary %q: %w", adm2, ErrNotFound)
	}
	return nil
}

// spatialTable runs a query returning a WKT "geometry" column and
// materializes it.
func (s *Session) spatialTable(ctx context.Context, operation, table, query string, args ...any) (*geometry.Table, error) {
	result, err := s.query(ctx, operation, table, query, args...)
	if err != nil {
		return nil, err
	}
	metrics.RecordSpatialOperation(operation)
	return geometry.Materialize(result, "geometry")
}

// withConn runs fn on the pinned connection with metrics.
func (s *Session) withConn(operation, table string, fn func(*sql.Conn) error) error {
	start := time.Now()
	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return ErrSessionClosed
		}
		return fn(s.conn)
	}()
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery(operation, table, time.Since(start), nil)
		return err
	}
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}
