// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geocookbook/internal/config"
	"github.com/tomtom215/geocookbook/internal/database"
	"github.com/tomtom215/geocookbook/internal/geometry"
	"github.com/tomtom215/geocookbook/internal/models"
	"github.com/tomtom215/geocookbook/internal/zonal"
)

// fakeSession is an in-memory Session. A non-nil err field makes the
// corresponding call fail.
type fakeSession struct {
	mu sync.Mutex

	pingErr error
	spatial bool
	httpfs  bool

	tables  []models.TableInfo
	columns map[string][]models.ColumnInfo
	drivers []models.Driver
	measure []models.Measure

	admins       map[int][]models.AdminName
	municipality map[string]int64
	negative     int64
	centroids    map[string][2]float64

	boundaries *geometry.Table
	wealth     *geometry.Table
	boundary   map[string]*geometry.Table
	within     map[string]*geometry.Table
	buffers    map[string]*geometry.Table

	zonal    map[string][]zonal.Result
	zonalErr error

	err error

	// recorded arguments
	wealthLimit  int
	bufferMeters float64
	zonalRaster  string
	zonalMeters  float64
	wealthCalls  int
	zonalCalls   int
}

var _ Session = (*fakeSession)(nil)

func (f *fakeSession) Ping(context.Context) error { return f.pingErr }
func (f *fakeSession) SpatialAvailable() bool     { return f.spatial }
func (f *fakeSession) HTTPFSAvailable() bool      { return f.httpfs }

func (f *fakeSession) Tables(context.Context) ([]models.TableInfo, error) {
	return f.tables, f.err
}

func (f *fakeSession) Describe(_ context.Context, table string) ([]models.ColumnInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	cols, ok := f.columns[table]
	if !ok {
		return nil, database.ErrNotFound
	}
	return cols, nil
}

func (f *fakeSession) Drivers(context.Context) ([]models.Driver, error) {
	return f.drivers, f.err
}

func (f *fakeSession) GeometryMeasures(context.Context) ([]models.Measure, error) {
	return f.measure, f.err
}

func (f *fakeSession) AdminNames(_ context.Context, level int) ([]models.AdminName, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.admins[level], nil
}

func (f *fakeSession) CountBoundariesInAdm1(_ context.Context, adm1 string) (int64, error) {
	return f.municipality[adm1], f.err
}

func (f *fakeSession) CountNegativeWealth(context.Context) (int64, error) {
	return f.negative, f.err
}

func (f *fakeSession) Centroid(_ context.Context, adm2 string) (float64, float64, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	c, ok := f.centroids[adm2]
	if !ok {
		return 0, 0, database.ErrNotFound
	}
	return c[0], c[1], nil
}

func (f *fakeSession) AllBoundariesLayer(context.Context) (*geometry.Table, error) {
	return f.boundaries, f.err
}

func (f *fakeSession) WealthLayer(_ context.Context, limit int) (*geometry.Table, error) {
	f.mu.Lock()
	f.wealthLimit = limit
	f.wealthCalls++
	f.mu.Unlock()
	return f.wealth, f.err
}

func (f *fakeSession) BoundaryLayer(_ context.Context, adm2 string) (*geometry.Table, error) {
	return orEmpty(f.boundary[adm2]), f.err
}

func (f *fakeSession) PointsWithin(_ context.Context, adm2 string) (*geometry.Table, error) {
	return orEmpty(f.within[adm2]), f.err
}

func (f *fakeSession) NegativeWealthBuffers(_ context.Context, adm2 string, meters float64) (*geometry.Table, error) {
	f.mu.Lock()
	f.bufferMeters = meters
	f.mu.Unlock()
	return orEmpty(f.buffers[adm2]), f.err
}

// orEmpty stands in for a query that matched no rows.
func orEmpty(table *geometry.Table) *geometry.Table {
	if table != nil {
		return table
	}
	return &geometry.Table{CRS: geometry.DefaultCRS, GeometryColumn: "geometry", Features: []geometry.Feature{}}
}

func (f *fakeSession) calls() (wealth, zonal int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wealthCalls, f.zonalCalls
}

func (f *fakeSession) ZonalPopulation(_ context.Context, adm1, rasterPath string, meters float64) ([]zonal.Result, error) {
	f.mu.Lock()
	f.zonalRaster = rasterPath
	f.zonalMeters = meters
	f.zonalCalls++
	f.mu.Unlock()
	if f.zonalErr != nil {
		return nil, f.zonalErr
	}
	return f.zonal[adm1], nil
}

// mustTable materializes (rwi, geometry) rows.
func mustTable(t *testing.T, rows ...[2]any) *geometry.Table {
	t.Helper()
	result := geometry.QueryResult{Columns: []string{"rwi", "geometry"}, Rows: []geometry.Row{}}
	for _, r := range rows {
		result.Rows = append(result.Rows, geometry.Row{"rwi": r[0], "geometry": r[1]})
	}
	table, err := geometry.Materialize(result, "geometry")
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	return table
}

const (
	barranquillaWKT = "POLYGON ((-74.9 10.9, -74.7 10.9, -74.7 11.1, -74.9 11.1, -74.9 10.9))"
	soledadWKT      = "POLYGON ((-74.7 10.9, -74.6 10.9, -74.6 11, -74.7 11, -74.7 10.9))"
)

// newFakeSession returns a session holding two Atlántico municipalities.
func newFakeSession(t *testing.T) *fakeSession {
	t.Helper()
	return &fakeSession{
		spatial: true,
		httpfs:  true,
		tables: []models.TableInfo{
			{Name: "boundaries", Type: "VIEW", Columns: 4},
			{Name: "rwi", Type: "BASE TABLE", Columns: 3},
		},
		columns: map[string][]models.ColumnInfo{
			"rwi": {
				{Name: "rwi", Type: "DOUBLE", Nullable: true},
				{Name: "error", Type: "DOUBLE", Nullable: true},
				{Name: "geom", Type: "GEOMETRY", Nullable: true},
			},
		},
		drivers: []models.Driver{{ShortName: "GeoJSON", LongName: "GeoJSON", CanOpen: true}},
		measure: []models.Measure{{Kind: "linestring", Geometry: "LINESTRING (0 0, 3 4)", Length: 5}},
		admins: map[int][]models.AdminName{
			1: {{Label: "Atlantico", Value: "ATLANTICO"}},
			2: {{Label: "Barranquilla", Value: "BARRANQUILLA"}, {Label: "Soledad", Value: "SOLEDAD"}},
		},
		municipality: map[string]int64{"ATLANTICO": 2},
		negative:     4,
		centroids:    map[string][2]float64{"BARRANQUILLA": {11, -74.8}, "SOLEDAD": {10.95, -74.65}},
		boundaries: mustTable(t,
			[2]any{nil, barranquillaWKT},
			[2]any{nil, soledadWKT},
		),
		wealth: mustTable(t,
			[2]any{-0.4, "POINT (-74.8 11)"},
			[2]any{0.7, "POINT (-74.65 10.95)"},
		),
		boundary: map[string]*geometry.Table{"BARRANQUILLA": mustTable(t, [2]any{nil, barranquillaWKT})},
		within: map[string]*geometry.Table{"BARRANQUILLA": mustTable(t,
			[2]any{-0.4, "POINT (-74.8 11)"},
			[2]any{0.2, "POINT (-74.75 10.95)"},
		)},
		buffers: map[string]*geometry.Table{"BARRANQUILLA": mustTable(t,
			[2]any{-0.4, "POLYGON ((-74.81 10.99, -74.79 10.99, -74.79 11.01, -74.81 11.01, -74.81 10.99))"},
		)},
		zonal: map[string][]zonal.Result{"ATLANTICO": {
			{Name: "BARRANQUILLA", Sum: 1210},
			{Name: "SOLEDAD", Sum: 74},
		}},
	}
}

func newTestHandler(session Session) *Handler {
	cfg := config.Defaults()
	cfg.Zonal.RasterPath = "/data/col_ppp_2020.tif"
	return NewHandler(session, cfg, "test")
}

// decodeResponse decodes the envelope, with data left raw for the caller.
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) (models.APIResponse, json.RawMessage) {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v\n%s", err, w.Body.String())
	}
	var raw struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return resp, raw.Data
}

// serve sends a GET through the full router.
func serve(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	router := NewRouter(h, NewChiMiddleware(cfg)).SetupChi()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d\n%s", w.Code, status, w.Body.String())
	}
	if code == "" {
		return
	}
	resp, _ := decodeResponse(t, w)
	if resp.Error == nil || resp.Error.Code != code {
		t.Errorf("error = %+v, want code %s", resp.Error, code)
	}
}
