// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package database

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/geocookbook/internal/models"
)

func TestTablesAndDescribe(t *testing.T) {
	s := setupTestSession(t)
	ctx := context.Background()

	if err := s.exec(ctx, `CREATE TABLE rwi (rwi DOUBLE, error DOUBLE NOT NULL, name VARCHAR)`); err != nil {
		t.Fatalf("exec() error = %v", err)
	}
	if err := s.exec(ctx, `CREATE VIEW negative AS SELECT * FROM rwi WHERE rwi < 0`); err != nil {
		t.Fatalf("exec() error = %v", err)
	}

	tables, err := s.Tables(ctx)
	if err != nil {
		t.Fatalf("Tables() error = %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("Tables() = %v, want 2 entries", tables)
	}
	if tables[0].Name != "negative" || tables[0].Type != "VIEW" {
		t.Errorf("tables[0] = %+v, want view negative", tables[0])
	}
	if tables[1].Name != "rwi" || tables[1].Columns != 3 {
		t.Errorf("tables[1] = %+v, want rwi with 3 columns", tables[1])
	}

	columns, err := s.Describe(ctx, "rwi")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	want := []models.ColumnInfo{
		{Name: "rwi", Type: "DOUBLE", Nullable: true},
		{Name: "error", Type: "DOUBLE", Nullable: false},
		{Name: "name", Type: "VARCHAR", Nullable: true},
	}
	if len(columns) != len(want) {
		t.Fatalf("Describe() = %v, want %v", columns, want)
	}
	for i := range want {
		if columns[i] != want[i] {
			t.Errorf("column %d = %+v, want %+v", i, columns[i], want[i])
		}
	}
}

func TestDescribeUnknownTable(t *testing.T) {
	s := setupTestSession(t)

	_, err := s.Describe(context.Background(), "boundaries_adm9")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Describe() error = %v, want ErrNotFound", err)
	}
}

func TestSpatialOperationsWithoutExtension(t *testing.T) {
	s := setupTestSession(t)
	ctx := context.Background()

	checks := map[string]func() error{
		"Drivers":          func() error { _, err := s.Drivers(ctx); return err },
		"GeometryMeasures": func() error { _, err := s.GeometryMeasures(ctx); return err },
		"Centroid":         func() error { _, _, err := s.Centroid(ctx, "SOLEDAD"); return err },
		"BoundaryLayer":    func() error { _, err := s.BoundaryLayer(ctx, "SOLEDAD"); return err },
		"AllBoundaries":    func() error { _, err := s.AllBoundariesLayer(ctx); return err },
		"WealthLayer":      func() error { _, err := s.WealthLayer(ctx, 10); return err },
		"PointsWithin":     func() error { _, err := s.PointsWithin(ctx, "SOLEDAD"); return err },
		"Buffers":          func() error { _, err := s.NegativeWealthBuffers(ctx, "SOLEDAD", 1200); return err },
		"ZonalPopulation":  func() error { _, err := s.ZonalPopulation(ctx, "ATLANTICO", "pop.tif", 2400); return err },
		"LoadWealthIndex":  func() error { _, err := s.LoadWealthIndex(ctx, "rwi.csv"); return err },
		"LoadBoundaries":   func() error { return s.LoadBoundaries(ctx, "adm2.json", "adm0.json") },
	}

	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			if err := check(); !errors.Is(err, ErrSpatialUnavailable) {
				t.Errorf("error = %v, want ErrSpatialUnavailable", err)
			}
		})
	}
}

func TestDrivers(t *testing.T) {
	s := setupSpatialSession(t)

	drivers, err := s.Drivers(context.Background())
	if err != nil {
		t.Fatalf("Drivers() error = %v", err)
	}

	found := false
	for _, d := range drivers {
		if d.ShortName == "GeoJSON" {
			found = true
			if !d.CanOpen {
				t.Error("GeoJSON driver should be able to open files")
			}
		}
	}
	if !found {
		t.Errorf("GeoJSON driver missing from %d drivers", len(drivers))
	}
}

func TestGeometryMeasures(t *testing.T) {
	s := setupSpatialSession(t)

	measures, err := s.GeometryMeasures(context.Background())
	if err != nil {
		t.Fatalf("GeometryMeasures() error = %v", err)
	}

	want := []struct {
		kind   string
		area   float64
		length float64
	}{
		{"point", 0, 0},
		{"linestring", 0, 5},
		{"polygon", 0.5, 0},
	}
	if len(measures) != len(want) {
		t.Fatalf("GeometryMeasures() = %v", measures)
	}
	for i, w := range want {
		m := measures[i]
		if m.Kind != w.kind {
			t.Errorf("measure %d kind = %q, want %q", i, m.Kind, w.kind)
		}
		if math.Abs(m.Area-w.area) > 1e-9 {
			t.Errorf("%s area = %v, want %v", m.Kind, m.Area, w.area)
		}
		if math.Abs(m.Length-w.length) > 1e-9 {
			t.Errorf("%s length = %v, want %v", m.Kind, m.Length, w.length)
		}
		if m.Geometry == "" {
			t.Errorf("%s geometry is empty", m.Kind)
		}
	}
}
