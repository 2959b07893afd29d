// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package zonal

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/tomtom215/geocookbook/internal/raster"
)

// selector reports whether cell (col, row) belongs to a geometry.
type selector func(col, row int) bool

func selectNone(int, int) bool { return false }

// cellSelector builds the cell membership test for g:
//   - points select the cell that contains them
//   - lines select every cell they touch
//   - polygons select cells whose centre is inside, or every touched cell
//     when allTouched is set
func cellSelector(g orb.Geometry, gt raster.GeoTransform, allTouched bool) selector {
	switch g := g.(type) {
	case orb.Point:
		c, r := gt.Cell(g)
		return func(col, row int) bool { return col == c && row == r }

	case orb.MultiPoint:
		cells := make(map[[2]int]struct{}, len(g))
		for _, p := range g {
			c, r := gt.Cell(p)
			cells[[2]int{c, r}] = struct{}{}
		}
		return func(col, row int) bool {
			_, ok := cells[[2]int{col, row}]
			return ok
		}

	case orb.LineString:
		return lineSelector([]orb.LineString{g}, gt)
	case orb.MultiLineString:
		return lineSelector(g, gt)

	case orb.Ring:
		return polygonSelector(orb.MultiPolygon{{g}}, gt, allTouched)
	case orb.Polygon:
		return polygonSelector(orb.MultiPolygon{g}, gt, allTouched)
	case orb.MultiPolygon:
		return polygonSelector(g, gt, allTouched)
	case orb.Bound:
		return polygonSelector(orb.MultiPolygon{g.ToPolygon()}, gt, allTouched)

	case orb.Collection:
		parts := make([]selector, 0, len(g))
		for _, member := range g {
			parts = append(parts, cellSelector(member, gt, allTouched))
		}
		return func(col, row int) bool {
			for _, s := range parts {
				if s(col, row) {
					return true
				}
			}
			return false
		}
	}
	return selectNone
}

func lineSelector(lines []orb.LineString, gt raster.GeoTransform) selector {
	return func(col, row int) bool {
		cell := gt.CellBound(col, row)
		for _, ls := range lines {
			if lineTouches(ls, cell) {
				return true
			}
		}
		return false
	}
}

func polygonSelector(mp orb.MultiPolygon, gt raster.GeoTransform, allTouched bool) selector {
	polys := make(orb.MultiPolygon, 0, len(mp))
	for _, p := range mp {
		if len(p) > 0 && len(p[0]) > 0 {
			polys = append(polys, p)
		}
	}
	if len(polys) == 0 {
		return selectNone
	}

	return func(col, row int) bool {
		if planar.MultiPolygonContains(polys, gt.CellCenter(col, row)) {
			return true
		}
		if !allTouched {
			return false
		}
		cell := gt.CellBound(col, row)
		for _, p := range polys {
			for _, ring := range p {
				if lineTouches(orb.LineString(ring), cell) {
					return true
				}
			}
		}
		return false
	}
}

// lineTouches reports whether any segment of ls meets the rectangle b,
// boundary included. A single-vertex line degenerates to a point test.
func lineTouches(ls orb.LineString, b orb.Bound) bool {
	if len(ls) == 1 {
		return b.Contains(ls[0])
	}
	for i := 0; i+1 < len(ls); i++ {
		if segmentTouches(ls[i], ls[i+1], b) {
			return true
		}
	}
	return false
}

// segmentTouches clips segment a-b against b (Liang-Barsky).
func segmentTouches(a, c orb.Point, b orb.Bound) bool {
	dx, dy := c[0]-a[0], c[1]-a[1]
	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{a[0] - b.Min[0], b.Max[0] - a[0], a[1] - b.Min[1], b.Max[1] - a[1]}

	t0, t1 := 0.0, 1.0
	for i := range p {
		if p[i] == 0 {
			if q[i] < 0 {
				return false
			}
			continue
		}
		t := q[i] / p[i]
		if p[i] < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
	}
	return true
}
