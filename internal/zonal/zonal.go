// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

// Package zonal computes zonal statistics: the values of a raster surface
// aggregated over the cells each geometry covers.
//
// The raster is opened at the start of every call and closed before it
// returns, on every path. Nothing is cached between calls, so an Aggregator
// is safe for concurrent use as long as its raster.Opener is.
//
// Cell membership follows the usual zonal statistics convention: a cell
// belongs to a polygon when its centre is inside it (boundary included), or
// when the polygon touches it at all if WithAllTouched is set. Points select
// the cell containing them, lines every cell they cross. Cells equal to the
// band's nodata value and non-finite cells are skipped.
package zonal

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/paulmach/orb"

	"github.com/tomtom215/geocookbook/internal/geometry"
	"github.com/tomtom215/geocookbook/internal/logging"
	"github.com/tomtom215/geocookbook/internal/metrics"
	"github.com/tomtom215/geocookbook/internal/raster"
)

// Stats summarises the valid cells selected by one geometry. Min, Max and
// Mean are zero when Count is zero.
type Stats struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// Aggregator computes zonal statistics against rasters opened by its Opener.
type Aggregator struct {
	opener     raster.Opener
	allTouched bool
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithAllTouched makes polygons select every cell they touch instead of
// only the cells whose centre they contain.
func WithAllTouched(allTouched bool) Option {
	return func(a *Aggregator) {
		a.allTouched = allTouched
	}
}

// New returns an Aggregator reading rasters through opener.
func New(opener raster.Opener, opts ...Option) *Aggregator {
	a := &Aggregator{opener: opener}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ComputeZonalSum returns the sum over all geometries of each geometry's
// zonal sum, truncated toward zero. Overlapping geometries count the shared
// cells once per geometry. Per-geometry sums are added in ascending order so
// the result does not depend on the order of geometries.
func (a *Aggregator) ComputeZonalSum(geometries []string, rasterPath string) (int64, error) {
	stats, err := a.Stats(geometries, rasterPath)
	if err != nil {
		return 0, err
	}

	sums := make([]float64, len(stats))
	for i, s := range stats {
		sums[i] = s.Sum
	}
	slices.Sort(sums)

	var total float64
	for _, v := range sums {
		total += v
	}
	return int64(math.Trunc(total)), nil
}

// Stats returns one Stats per geometry, in input order.
func (a *Aggregator) Stats(geometries []string, rasterPath string) ([]Stats, error) {
	start := time.Now()

	stats, cells, err := a.run(geometries, rasterPath)

	metrics.RecordZonal(outcome(err), len(geometries), cells, time.Since(start))
	if err != nil {
		logging.Debug().
			Err(err).
			Int("geometries", len(geometries)).
			Str("raster", rasterPath).
			Msg("Zonal aggregation failed")
		return nil, err
	}

	logging.Debug().
		Int("geometries", len(geometries)).
		Int("cells", cells).
		Str("raster", rasterPath).
		Dur("duration", time.Since(start)).
		Msg("Zonal aggregation completed")
	return stats, nil
}

func (a *Aggregator) run(geometries []string, rasterPath string) ([]Stats, int, error) {
	if len(geometries) == 0 {
		return nil, 0, ErrEmptyGeometrySet
	}

	parsed := make([]orb.Geometry, len(geometries))
	for i, text := range geometries {
		g, err := geometry.ParseWKT(text)
		if err != nil {
			var mge *geometry.MalformedGeometryError
			if errors.As(err, &mge) {
				mge.Row = i
			}
			return nil, 0, err
		}
		parsed[i] = g
	}

	grid, err := a.opener.Open(rasterPath)
	if err != nil {
		return nil, 0, &RasterUnavailableError{Path: rasterPath, Err: err}
	}
	defer func() {
		if cerr := grid.Close(); cerr != nil {
			logging.Debug().Err(cerr).Str("raster", rasterPath).Msg("Failed to close raster")
		}
	}()

	if !grid.GeoTransform().NorthUp() {
		return nil, 0, fmt.Errorf("%w: %s", ErrRotatedRaster, rasterPath)
	}

	out := make([]Stats, len(parsed))
	cells := 0
	for i, g := range parsed {
		s, n, err := a.geometryStats(grid, g)
		cells += n
		if err != nil {
			return nil, cells, fmt.Errorf("zonal: geometry %d: %w", i, err)
		}
		out[i] = s
	}
	return out, cells, nil
}

// geometryStats reads the window under g and aggregates the selected cells.
// It also returns how many cells were read.
func (a *Aggregator) geometryStats(grid raster.Grid, g orb.Geometry) (Stats, int, error) {
	if g == nil {
		return Stats{}, 0, nil
	}
	bound := g.Bound()
	if bound.IsEmpty() {
		return Stats{}, 0, nil
	}

	gt := grid.GeoTransform()
	cols, rows := grid.Size()
	win, ok := gt.Window(bound, cols, rows)
	if !ok {
		return Stats{}, 0, nil
	}

	values, err := grid.ReadWindow(win.Col0, win.Row0, win.Width(), win.Height())
	if err != nil {
		return Stats{}, 0, err
	}

	nodata, hasNoData := grid.NoData()
	include := cellSelector(g, gt, a.allTouched)

	var s Stats
	w := win.Width()
	for r := 0; r < win.Height(); r++ {
		for c := 0; c < w; c++ {
			v := values[r*w+c]
			if math.IsNaN(v) || math.IsInf(v, 0) || (hasNoData && v == nodata) {
				continue
			}
			if !include(win.Col0+c, win.Row0+r) {
				continue
			}
			if s.Count == 0 || v < s.Min {
				s.Min = v
			}
			if s.Count == 0 || v > s.Max {
				s.Max = v
			}
			s.Sum += v
			s.Count++
		}
	}
	if s.Count > 0 {
		s.Mean = s.Sum / float64(s.Count)
	}
	return s, len(values), nil
}

// outcome labels a result for the zonal_computations_total metric.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrEmptyGeometrySet):
		return "empty"
	case errors.Is(err, geometry.ErrMalformedGeometry):
		return "malformed"
	case errors.Is(err, ErrRasterUnavailable):
		return "raster_unavailable"
	default:
		return "error"
	}
}
