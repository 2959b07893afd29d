// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package zonal

import "fmt"

// Group is a named set of WKT geometries, e.g. the buffers of one district.
type Group struct {
	Name       string
	Geometries []string
}

// Result is the zonal sum of one group.
type Result struct {
	Name string `json:"name"`
	Sum  int64  `json:"sum"`
}

// SumByGroup runs ComputeZonalSum once per group, in input order. The raster
// is opened and closed once per group. The first failure aborts the run.
func (a *Aggregator) SumByGroup(groups []Group, rasterPath string) ([]Result, error) {
	results := make([]Result, 0, len(groups))
	for _, g := range groups {
		sum, err := a.ComputeZonalSum(g.Geometries, rasterPath)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", g.Name, err)
		}
		results = append(results, Result{Name: g.Name, Sum: sum})
	}
	return results, nil
}
