// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package database

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/tomtom215/geocookbook/internal/geometry"
)

func TestQueryColumnsAndRows(t *testing.T) {
	s := setupTestSession(t)
	ctx := context.Background()

	result, err := s.Query(ctx, `
		SELECT * FROM (VALUES (1, 'barranquilla'), (2, 'soledad'), (3, 'malambo')) t(id, name)
		WHERE id >= ?
		ORDER BY id`, 2)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if strings.Join(result.Columns, ",") != "id,name" {
		t.Errorf("Columns = %v, want [id name]", result.Columns)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(result.Rows))
	}
	if result.Rows[0]["name"] != "soledad" || result.Rows[1]["name"] != "malambo" {
		t.Errorf("Rows = %v", result.Rows)
	}
}

func TestQueryEmptyResult(t *testing.T) {
	s := setupTestSession(t)

	result, err := s.Query(context.Background(), "SELECT 1 AS x WHERE false")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.Rows == nil || len(result.Rows) != 0 {
		t.Errorf("Rows = %#v, want empty non-nil slice", result.Rows)
	}
	if len(result.Columns) != 1 {
		t.Errorf("Columns = %v, want [x]", result.Columns)
	}
}

func TestQueryNormalizesDecimal(t *testing.T) {
	s := setupTestSession(t)

	result, err := s.Query(context.Background(), "SELECT 1.5::DECIMAL(4,2) AS d, NULL AS n")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if d, ok := result.Rows[0]["d"].(float64); !ok || d != 1.5 {
		t.Errorf("d = %#v, want float64 1.5", result.Rows[0]["d"])
	}
	if result.Rows[0]["n"] != nil {
		t.Errorf("n = %#v, want nil", result.Rows[0]["n"])
	}
}

func TestQuerySyntaxError(t *testing.T) {
	s := setupTestSession(t)

	_, err := s.Query(context.Background(), "SELEC 1")
	if err == nil {
		t.Fatal("Query() error = nil for invalid SQL")
	}
	if !strings.HasPrefix(err.Error(), "query: ") {
		t.Errorf("error %q should carry the operation", err)
	}
}

func TestQueryTable(t *testing.T) {
	s := setupTestSession(t)

	table, err := s.QueryTable(context.Background(), `
		SELECT * FROM (VALUES
			(-0.5, 'POINT (-74.8 11)'),
			(0.3, NULL),
			(1.2, 'POLYGON ((0 0, 0 1, 1 1, 0 0))')
		) t(rwi, geometry)`, "geometry")
	if err != nil {
		t.Fatalf("QueryTable() error = %v", err)
	}

	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", table.Len())
	}
	if table.CRS != geometry.DefaultCRS {
		t.Errorf("CRS = %q", table.CRS)
	}
	if p, ok := table.Features[0].Geometry.(orb.Point); !ok || p != (orb.Point{-74.8, 11}) {
		t.Errorf("feature 0 geometry = %v", table.Features[0].Geometry)
	}
	if table.Features[1].Geometry != nil {
		t.Errorf("feature 1 geometry = %v, want nil", table.Features[1].Geometry)
	}
	if _, ok := table.Features[2].Geometry.(orb.Polygon); !ok {
		t.Errorf("feature 2 geometry = %T, want orb.Polygon", table.Features[2].Geometry)
	}
}

func TestQueryTableMalformed(t *testing.T) {
	s := setupTestSession(t)

	_, err := s.QueryTable(context.Background(),
		`SELECT * FROM (VALUES (1, 'POINT (1 1)'), (2, 'POINT (oops)')) t(id, geometry) ORDER BY id`, "geometry")

	var mge *geometry.MalformedGeometryError
	if !errors.As(err, &mge) {
		t.Fatalf("QueryTable() error = %v, want *MalformedGeometryError", err)
	}
	if mge.Row != 1 {
		t.Errorf("Row = %d, want 1", mge.Row)
	}
}

func TestNormalizeValue(t *testing.T) {
	huge, _ := new(big.Int).SetString("170141183460469231731687303715884105727", 10)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"small hugeint", big.NewInt(42), int64(42)},
		{"large hugeint", huge, "170141183460469231731687303715884105727"},
		{"string", "x", "x"},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeValue(tt.in); got != tt.want {
				t.Errorf("normalizeValue(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestQueryHelpers(t *testing.T) {
	if got := quoteLiteral("it's.csv"); got != "'it''s.csv'" {
		t.Errorf("quoteLiteral() = %s", got)
	}
	if got := quoteLiteral("https://example.com/a.json"); got != "'https://example.com/a.json'" {
		t.Errorf("quoteLiteral() = %s", got)
	}

	capitalizations := map[string]string{
		"BARRANQUILLA":   "Barranquilla",
		"SANTA MARTA":    "Santa marta",
		"ÚTICA":          "Útica",
		"bogotá, d.c.":   "Bogotá, d.c.",
		"":               "",
		"caldas":         "Caldas",
		"SAN ANDRÉS ISL": "San andrés isl",
	}
	for in, want := range capitalizations {
		if got := capitalize(in); got != want {
			t.Errorf("capitalize(%q) = %q, want %q", in, got, want)
		}
	}

	if asInt64(int32(7)) != 7 || asInt64("x") != 0 {
		t.Error("asInt64() conversion mismatch")
	}
	if asFloat64(int64(3)) != 3 || asFloat64(float32(0.5)) != 0.5 {
		t.Error("asFloat64() conversion mismatch")
	}
	if asString([]byte("abc")) != "abc" || asString(nil) != "" || asString(12) != "12" {
		t.Error("asString() conversion mismatch")
	}
	if !asBool(true) || asBool("true") {
		t.Error("asBool() conversion mismatch")
	}
}
