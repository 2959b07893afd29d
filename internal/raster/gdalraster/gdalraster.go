// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

// Package gdalraster opens rasters through GDAL (via godal). Any format GDAL
// reads is accepted; http(s) and s3 URLs are routed through the GDAL virtual
// file systems so remote GeoTIFFs are read by range requests.
//
// This package links against libgdal. Everything else in the module only
// depends on the raster.Grid contract.
package gdalraster

import (
	"fmt"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/tomtom215/geocookbook/internal/logging"
	"github.com/tomtom215/geocookbook/internal/raster"
)

var registerOnce sync.Once

// Opener opens band 1 of a GDAL dataset.
type Opener struct{}

// New registers the GDAL drivers (once per process) and returns an Opener.
func New() *Opener {
	registerOnce.Do(func() {
		godal.RegisterAll()
		logging.Debug().Msg("GDAL drivers registered")
	})
	return &Opener{}
}

// VSIPath maps a URL to its GDAL virtual file system path. Local paths are
// returned unchanged.
func VSIPath(path string) string {
	switch {
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return "/vsicurl/" + path
	case strings.HasPrefix(path, "s3://"):
		return "/vsis3/" + strings.TrimPrefix(path, "s3://")
	default:
		return path
	}
}

// Open opens the dataset at path and binds its first band.
func (o *Opener) Open(path string) (raster.Grid, error) {
	ds, err := godal.Open(VSIPath(path))
	if err != nil {
		return nil, fmt.Errorf("open raster %s: %w", path, err)
	}

	st := ds.Structure()
	if st.NBands < 1 {
		closeQuietly(ds)
		return nil, fmt.Errorf("raster %s has no bands", path)
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		closeQuietly(ds)
		return nil, fmt.Errorf("raster %s has no geotransform: %w", path, err)
	}

	band := ds.Bands()[0]
	nodata, hasNoData := band.NoData()

	return &dataset{
		ds:        ds,
		band:      band,
		cols:      st.SizeX,
		rows:      st.SizeY,
		gt:        raster.GeoTransform(gt),
		nodata:    nodata,
		hasNoData: hasNoData,
	}, nil
}

type dataset struct {
	mu        sync.Mutex
	ds        *godal.Dataset
	band      godal.Band
	cols      int
	rows      int
	gt        raster.GeoTransform
	nodata    float64
	hasNoData bool
}

func (d *dataset) Size() (cols, rows int)            { return d.cols, d.rows }
func (d *dataset) GeoTransform() raster.GeoTransform { return d.gt }
func (d *dataset) NoData() (float64, bool)           { return d.nodata, d.hasNoData }

// ReadWindow reads band 1 as float64. GDAL converts from the native data type.
func (d *dataset) ReadWindow(col, row, w, h int) ([]float64, error) {
	if w <= 0 || h <= 0 || col < 0 || row < 0 || col+w > d.cols || row+h > d.rows {
		return nil, fmt.Errorf("%w: window (%d,%d) %dx%d on %dx%d grid",
			raster.ErrWindowOutOfRange, col, row, w, h, d.cols, d.rows)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ds == nil {
		return nil, raster.ErrClosed
	}

	buf := make([]float64, w*h)
	if err := d.band.Read(col, row, buf, w, h); err != nil {
		return nil, fmt.Errorf("read raster window: %w", err)
	}
	return buf, nil
}

func (d *dataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ds == nil {
		return raster.ErrClosed
	}
	err := d.ds.Close()
	d.ds = nil
	return err
}

func closeQuietly(ds *godal.Dataset) {
	if err := ds.Close(); err != nil {
		logging.Debug().Err(err).Msg("Failed to close GDAL dataset")
	}
}
