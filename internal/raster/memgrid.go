// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package raster

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by reads on a closed grid.
var ErrClosed = errors.New("raster grid closed")

// ErrNotExist is returned by MemOpener for unknown paths.
var ErrNotExist = errors.New("raster does not exist")

// MemGrid is an in-memory raster band. Values are row-major.
type MemGrid struct {
	cols, rows int
	gt         GeoTransform
	values     []float64
	nodata     float64
	hasNoData  bool
}

// NewMemGrid builds a cols x rows grid. len(values) must equal cols*rows.
func NewMemGrid(cols, rows int, gt GeoTransform, values []float64) (*MemGrid, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", cols, rows)
	}
	if len(values) != cols*rows {
		return nil, fmt.Errorf("grid %dx%d needs %d values, got %d", cols, rows, cols*rows, len(values))
	}
	v := make([]float64, len(values))
	copy(v, values)
	return &MemGrid{cols: cols, rows: rows, gt: gt, values: v}, nil
}

// SetNoData declares the nodata value.
func (g *MemGrid) SetNoData(v float64) {
	g.nodata = v
	g.hasNoData = true
}

func (g *MemGrid) Size() (cols, rows int)     { return g.cols, g.rows }
func (g *MemGrid) GeoTransform() GeoTransform { return g.gt }
func (g *MemGrid) NoData() (float64, bool)    { return g.nodata, g.hasNoData }
func (g *MemGrid) Close() error               { return nil }

func (g *MemGrid) ReadWindow(col, row, w, h int) ([]float64, error) {
	if err := checkWindow(col, row, w, h, g.cols, g.rows); err != nil {
		return nil, err
	}
	out := make([]float64, 0, w*h)
	for r := row; r < row+h; r++ {
		start := r*g.cols + col
		out = append(out, g.values[start:start+w]...)
	}
	return out, nil
}

// MemOpener serves MemGrids by path and counts opens and closes.
type MemOpener struct {
	mu     sync.RWMutex
	grids  map[string]*MemGrid
	opened atomic.Int64
	closed atomic.Int64
}

// NewMemOpener returns an empty opener.
func NewMemOpener() *MemOpener {
	return &MemOpener{grids: make(map[string]*MemGrid)}
}

// Add registers g under path.
func (o *MemOpener) Add(path string, g *MemGrid) {
	o.mu.Lock()
	o.grids[path] = g
	o.mu.Unlock()
}

// Open returns a handle on the grid registered under path.
func (o *MemOpener) Open(path string) (Grid, error) {
	o.mu.RLock()
	g, ok := o.grids[path]
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
	}
	o.opened.Add(1)
	return &memHandle{MemGrid: g, owner: o}, nil
}

// Opened returns how many handles were opened.
func (o *MemOpener) Opened() int64 { return o.opened.Load() }

// Closed returns how many handles were closed.
func (o *MemOpener) Closed() int64 { return o.closed.Load() }

// memHandle gives every Open its own close state.
type memHandle struct {
	*MemGrid
	owner  *MemOpener
	closed atomic.Bool
}

func (h *memHandle) ReadWindow(col, row, w, hgt int) ([]float64, error) {
	if h.closed.Load() {
		return nil, ErrClosed
	}
	return h.MemGrid.ReadWindow(col, row, w, hgt)
}

func (h *memHandle) Close() error {
	if h.closed.CompareAndSwap(false, true) {
		h.owner.closed.Add(1)
		return nil
	}
	return ErrClosed
}
