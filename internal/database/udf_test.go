// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tomtom215/geocookbook/internal/geometry"
	"github.com/tomtom215/geocookbook/internal/raster"
	"github.com/tomtom215/geocookbook/internal/zonal"
)

// fakeSummer returns a fixed sum or error and records its inputs.
type fakeSummer struct {
	sum int64
	err error

	mu    sync.Mutex
	calls [][]string
}

func (f *fakeSummer) ComputeZonalSum(geometries []string, _ string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, geometries)
	return f.sum, f.err
}

func (f *fakeSummer) recorded() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// unitGridOpener serves a 4x4 grid of ones with 1x1 cells whose top-left
// corner is (0, 4).
func unitGridOpener(t *testing.T, path string) *raster.MemOpener {
	t.Helper()
	values := make([]float64, 16)
	for i := range values {
		values[i] = 1
	}
	g, err := raster.NewMemGrid(4, 4, raster.GeoTransform{0, 1, 0, 4, 0, -1}, values)
	if err != nil {
		t.Fatalf("NewMemGrid() error = %v", err)
	}
	o := raster.NewMemOpener()
	o.Add(path, g)
	return o
}

func TestStringList(t *testing.T) {
	got, err := stringList([]any{"POINT (1 1)", nil, "POINT (2 2)"})
	if err != nil {
		t.Fatalf("stringList() error = %v", err)
	}
	if len(got) != 3 || got[0] != "POINT (1 1)" || got[1] != "" || got[2] != "POINT (2 2)" {
		t.Errorf("stringList() = %q", got)
	}

	if _, err := stringList("POINT (1 1)"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("stringList(string) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := stringList([]any{"POINT (1 1)", 42}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("stringList(mixed) error = %v, want ErrInvalidArgument", err)
	}
}

func TestRegisterZonalUDFNil(t *testing.T) {
	s := setupTestSession(t)
	if err := s.RegisterZonalUDF(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("RegisterZonalUDF(nil) error = %v, want ErrInvalidArgument", err)
	}
}

func TestZonalUDFFromSQL(t *testing.T) {
	s := setupTestSession(t)
	opener := unitGridOpener(t, "mem://population")

	if err := s.RegisterZonalUDF(zonal.New(opener)); err != nil {
		t.Fatalf("RegisterZonalUDF() error = %v", err)
	}

	result, err := s.Query(context.Background(), `
		SELECT apply_zonal_stats(['POLYGON((0 0,0 2,2 2,2 0,0 0))', 'POINT(3.5 3.5)'], 'mem://population') AS total`)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got := result.Rows[0]["total"]; got != int64(5) {
		t.Errorf("apply_zonal_stats() = %#v, want int64(5)", got)
	}
	if opener.Opened() != 1 || opener.Closed() != 1 {
		t.Errorf("raster opened %d / closed %d times, want 1 / 1", opener.Opened(), opener.Closed())
	}
}

func TestZonalUDFPerGroup(t *testing.T) {
	s := setupTestSession(t)
	summer := &fakeSummer{sum: 7}
	if err := s.RegisterZonalUDF(summer); err != nil {
		t.Fatalf("RegisterZonalUDF() error = %v", err)
	}

	result, err := s.Query(context.Background(), `
		WITH points AS (
			SELECT * FROM (VALUES ('a', 'POINT(1 1)'), ('a', 'POINT(2 2)'), ('b', 'POINT(3 3)')) t(grp, wkt)
		)
		SELECT grp, apply_zonal_stats(ARRAY_AGG(wkt ORDER BY wkt), 'any.tif') AS total
		FROM points
		GROUP BY grp
		ORDER BY grp`)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %v, want 2 groups", result.Rows)
	}
	for _, row := range result.Rows {
		if row["total"] != int64(7) {
			t.Errorf("group %v total = %#v, want 7", row["grp"], row["total"])
		}
	}
	calls := summer.recorded()
	if len(calls) != 2 {
		t.Fatalf("summer called %d times, want once per group", len(calls))
	}
	sizes := map[int]bool{len(calls[0]): true, len(calls[1]): true}
	if !sizes[1] || !sizes[2] {
		t.Errorf("call sizes = %d, %d; want one group of 2 and one of 1", len(calls[0]), len(calls[1]))
	}
}

func TestZonalUDFNullInputs(t *testing.T) {
	s := setupTestSession(t)
	summer := &fakeSummer{sum: 1}
	if err := s.RegisterZonalUDF(summer); err != nil {
		t.Fatalf("RegisterZonalUDF() error = %v", err)
	}

	result, err := s.Query(context.Background(),
		`SELECT apply_zonal_stats(NULL::VARCHAR[], 'a.tif') AS a, apply_zonal_stats(['POINT(0 0)'], NULL) AS b`)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.Rows[0]["a"] != nil || result.Rows[0]["b"] != nil {
		t.Errorf("row = %v, want NULL for NULL inputs", result.Rows[0])
	}
	if calls := summer.recorded(); len(calls) != 0 {
		t.Errorf("summer called %d times for NULL inputs", len(calls))
	}
}

func TestZonalUDFKeepsTypedError(t *testing.T) {
	s := setupTestSession(t)
	opener := raster.NewMemOpener()
	if err := s.RegisterZonalUDF(zonal.New(opener)); err != nil {
		t.Fatalf("RegisterZonalUDF() error = %v", err)
	}

	_, err := s.Query(context.Background(),
		`SELECT apply_zonal_stats(['POINT(0 0)'], 'missing.tif') AS total`)
	if err == nil {
		t.Fatal("Query() error = nil for a missing raster")
	}

	recorded := s.zonalUDF().takeError()
	var rue *zonal.RasterUnavailableError
	if !errors.As(recorded, &rue) {
		t.Fatalf("recorded error = %v, want *RasterUnavailableError", recorded)
	}
	if rue.Path != "missing.tif" {
		t.Errorf("Path = %q", rue.Path)
	}
	if s.zonalUDF().takeError() != nil {
		t.Error("takeError() should clear the recorded error")
	}
}

func TestZonalUDFMalformedGeometry(t *testing.T) {
	s := setupTestSession(t)
	if err := s.RegisterZonalUDF(zonal.New(unitGridOpener(t, "pop.tif"))); err != nil {
		t.Fatalf("RegisterZonalUDF() error = %v", err)
	}

	_, err := s.Query(context.Background(),
		`SELECT apply_zonal_stats(['POINT(1 1)', NULL], 'pop.tif') AS total`)
	if err == nil {
		t.Fatal("Query() error = nil for a NULL geometry element")
	}
	var mge *geometry.MalformedGeometryError
	if !errors.As(s.zonalUDF().takeError(), &mge) || mge.Row != 1 {
		t.Errorf("recorded error = %v, want malformed geometry at position 1", mge)
	}
}

func TestRegisterZonalUDFTwiceReplacesSummer(t *testing.T) {
	s := setupTestSession(t)
	if err := s.RegisterZonalUDF(&fakeSummer{sum: 1}); err != nil {
		t.Fatalf("RegisterZonalUDF() error = %v", err)
	}
	if err := s.RegisterZonalUDF(&fakeSummer{sum: 2}); err != nil {
		t.Fatalf("second RegisterZonalUDF() error = %v", err)
	}

	result, err := s.Query(context.Background(), `SELECT apply_zonal_stats(['POINT(0 0)'], 'x') AS total`)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.Rows[0]["total"] != int64(2) {
		t.Errorf("total = %#v, want 2 from the replacement summer", result.Rows[0]["total"])
	}
}

// colombiaGridOpener serves a grid of ones with 0.01 degree cells over
// longitude -75..-74.5 and latitude 10.8..11.2.
func colombiaGridOpener(t *testing.T, path string) *raster.MemOpener {
	t.Helper()
	cols, rows := 50, 40
	values := make([]float64, cols*rows)
	for i := range values {
		values[i] = 1
	}
	g, err := raster.NewMemGrid(cols, rows, raster.GeoTransform{-75, 0.01, 0, 11.2, 0, -0.01}, values)
	if err != nil {
		t.Fatalf("NewMemGrid() error = %v", err)
	}
	o := raster.NewMemOpener()
	o.Add(path, g)
	return o
}

func TestZonalPopulation(t *testing.T) {
	s := setupCookbookSession(t)
	ctx := context.Background()

	if _, err := s.ZonalPopulation(ctx, "ATLANTICO", "pop.tif", 2400); !errors.Is(err, ErrZonalUDFNotRegistered) {
		t.Fatalf("ZonalPopulation() before registration error = %v, want ErrZonalUDFNotRegistered", err)
	}

	opener := colombiaGridOpener(t, "pop.tif")
	if err := s.RegisterZonalUDF(zonal.New(opener)); err != nil {
		t.Fatalf("RegisterZonalUDF() error = %v", err)
	}

	results, err := s.ZonalPopulation(ctx, "ATLANTICO", "pop.tif", 2400)
	if err != nil {
		t.Fatalf("ZonalPopulation() error = %v", err)
	}
	if len(results) != 2 || results[0].Name != "BARRANQUILLA" || results[1].Name != "SOLEDAD" {
		t.Fatalf("ZonalPopulation() = %v, want BARRANQUILLA and SOLEDAD", results)
	}
	// Barranquilla has two negative points, Soledad one; buffers are
	// roughly 9x9 cells.
	if results[1].Sum < 40 || results[1].Sum > 120 {
		t.Errorf("SOLEDAD sum = %d, want about 80", results[1].Sum)
	}
	if results[0].Sum <= results[1].Sum {
		t.Errorf("BARRANQUILLA sum %d should exceed SOLEDAD sum %d", results[0].Sum, results[1].Sum)
	}
	if opener.Opened() != 2 || opener.Closed() != 2 {
		t.Errorf("raster opened %d / closed %d times, want once per group", opener.Opened(), opener.Closed())
	}

	// Manizales lies outside the raster: its group sums to zero.
	results, err = s.ZonalPopulation(ctx, "CALDAS", "pop.tif", 2400)
	if err != nil {
		t.Fatalf("ZonalPopulation(CALDAS) error = %v", err)
	}
	if len(results) != 1 || results[0].Sum != 0 {
		t.Errorf("ZonalPopulation(CALDAS) = %v, want [MANIZALES 0]", results)
	}

	results, err = s.ZonalPopulation(ctx, "ANTIOQUIA", "pop.tif", 2400)
	if err != nil || len(results) != 0 {
		t.Errorf("ZonalPopulation(ANTIOQUIA) = %v, %v; want no groups", results, err)
	}
}

func TestZonalPopulationRasterUnavailable(t *testing.T) {
	s := setupCookbookSession(t)
	if err := s.RegisterZonalUDF(zonal.New(raster.NewMemOpener())); err != nil {
		t.Fatalf("RegisterZonalUDF() error = %v", err)
	}

	_, err := s.ZonalPopulation(context.Background(), "ATLANTICO", "missing.tif", 2400)
	if !errors.Is(err, zonal.ErrRasterUnavailable) {
		t.Fatalf("ZonalPopulation() error = %v, want ErrRasterUnavailable", err)
	}
	if !errors.Is(err, raster.ErrNotExist) {
		t.Errorf("error %v should keep the opener cause", err)
	}
}

func TestZonalPopulationConcurrentErrorsStayWithTheirCall(t *testing.T) {
	s := setupCookbookSession(t)
	ctx := context.Background()
	if err := s.RegisterZonalUDF(zonal.New(colombiaGridOpener(t, "pop.tif"))); err != nil {
		t.Fatalf("RegisterZonalUDF() error = %v", err)
	}

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, err := s.ZonalPopulation(ctx, "ATLANTICO", "missing.tif", 2400)
			if !errors.Is(err, zonal.ErrRasterUnavailable) {
				t.Errorf("ZonalPopulation(ATLANTICO, missing.tif) error = %v, want ErrRasterUnavailable", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := s.ZonalPopulation(ctx, "CALDAS", "pop.tif", 2400); err != nil {
				t.Errorf("ZonalPopulation(CALDAS, pop.tif) error = %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			// A failing ad-hoc call must not leak into the other calls.
			_, _ = s.Query(ctx, `SELECT `+ZonalUDFName+`(['POINT (0 0)'], 'missing.tif')`)
		}()
	}
	wg.Wait()
}
