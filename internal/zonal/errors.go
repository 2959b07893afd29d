// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package zonal

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyGeometrySet is returned when no geometries are supplied.
	// The raster is not opened in that case.
	ErrEmptyGeometrySet = errors.New("zonal: empty geometry set")

	// ErrRasterUnavailable matches every *RasterUnavailableError via errors.Is.
	ErrRasterUnavailable = errors.New("zonal: raster unavailable")

	// ErrRotatedRaster is returned for rasters whose geotransform is not north-up.
	ErrRotatedRaster = errors.New("zonal: rotated rasters are not supported")
)

// RasterUnavailableError reports a raster that could not be opened.
type RasterUnavailableError struct {
	Path string
	Err  error
}

func (e *RasterUnavailableError) Error() string {
	return fmt.Sprintf("zonal: raster %s unavailable: %v", e.Path, e.Err)
}

func (e *RasterUnavailableError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrRasterUnavailable) hold.
func (e *RasterUnavailableError) Is(target error) bool {
	return target == ErrRasterUnavailable
}
