// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

// Package raster models a single-band raster surface: a grid of cells laid
// out by an affine geotransform, read in rectangular windows.
//
// Concrete file formats live in sub-packages (see gdalraster); this package
// only defines the contract plus an in-memory grid.
package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// ErrWindowOutOfRange is returned when a requested window leaves the grid.
var ErrWindowOutOfRange = errors.New("raster window out of range")

// Grid is an opened raster band.
type Grid interface {
	// Size returns the grid dimensions in cells.
	Size() (cols, rows int)
	// GeoTransform maps cell indices to CRS coordinates.
	GeoTransform() GeoTransform
	// NoData returns the nodata value, if the band declares one.
	NoData() (value float64, ok bool)
	// ReadWindow returns w*h values in row-major order starting at (col, row).
	ReadWindow(col, row, w, h int) ([]float64, error)
	Close() error
}

// Opener opens a raster by path or URL.
type Opener interface {
	Open(path string) (Grid, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Grid, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (Grid, error) {
	return f(path)
}

// GeoTransform is the GDAL affine transform:
//
//	x = gt[0] + col*gt[1] + row*gt[2]
//	y = gt[3] + col*gt[4] + row*gt[5]
//
// Only north-up transforms (gt[2] == gt[4] == 0) are supported for cell lookups.
type GeoTransform [6]float64

// NorthUp reports whether the transform has no rotation terms.
func (gt GeoTransform) NorthUp() bool {
	return gt[2] == 0 && gt[4] == 0 && gt[1] != 0 && gt[5] != 0
}

// CellCenter returns the CRS coordinate of the centre of cell (col, row).
func (gt GeoTransform) CellCenter(col, row int) orb.Point {
	return orb.Point{
		gt[0] + (float64(col)+0.5)*gt[1],
		gt[3] + (float64(row)+0.5)*gt[5],
	}
}

// CellBound returns the extent of cell (col, row).
func (gt GeoTransform) CellBound(col, row int) orb.Bound {
	x0 := gt[0] + float64(col)*gt[1]
	y0 := gt[3] + float64(row)*gt[5]
	x1 := x0 + gt[1]
	y1 := y0 + gt[5]
	return orb.Bound{
		Min: orb.Point{math.Min(x0, x1), math.Min(y0, y1)},
		Max: orb.Point{math.Max(x0, x1), math.Max(y0, y1)},
	}
}

// Cell returns the indices of the cell containing p. The result may lie
// outside the grid.
func (gt GeoTransform) Cell(p orb.Point) (col, row int) {
	col = int(math.Floor((p[0] - gt[0]) / gt[1]))
	row = int(math.Floor((p[1] - gt[3]) / gt[5]))
	return col, row
}

// Window is a rectangular, inclusive range of cells.
type Window struct {
	Col0, Row0, Col1, Row1 int
}

// Width returns the number of columns in the window.
func (w Window) Width() int { return w.Col1 - w.Col0 + 1 }

// Height returns the number of rows in the window.
func (w Window) Height() int { return w.Row1 - w.Row0 + 1 }

// Cells returns Width*Height.
func (w Window) Cells() int { return w.Width() * w.Height() }

// Window returns the cells of a cols x rows grid whose extent intersects b.
// ok is false when b misses the grid entirely.
func (gt GeoTransform) Window(b orb.Bound, cols, rows int) (w Window, ok bool) {
	ca, ra := gt.Cell(orb.Point{b.Min[0], b.Max[1]})
	cb, rb := gt.Cell(orb.Point{b.Max[0], b.Min[1]})

	w = Window{
		Col0: clamp(min(ca, cb), 0, cols-1),
		Col1: clamp(max(ca, cb), 0, cols-1),
		Row0: clamp(min(ra, rb), 0, rows-1),
		Row1: clamp(max(ra, rb), 0, rows-1),
	}

	if max(ca, cb) < 0 || min(ca, cb) >= cols || max(ra, rb) < 0 || min(ra, rb) >= rows {
		return Window{}, false
	}
	return w, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// checkWindow validates a ReadWindow request against a cols x rows grid.
func checkWindow(col, row, w, h, cols, rows int) error {
	if w <= 0 || h <= 0 || col < 0 || row < 0 || col+w > cols || row+h > rows {
		return fmt.Errorf("%w: window (%d,%d) %dx%d on %dx%d grid", ErrWindowOutOfRange, col, row, w, h, cols, rows)
	}
	return nil
}
