// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

// Package mapview assembles the data a web map needs to render cookbook
// results: a basemap, an initial view and a stack of GeoJSON layers.
//
// Rendering is left to the client. A Map serializes to
//
//	{
//	  "tiles": "Cartodb dark_matter",
//	  "min_zoom": 5,
//	  "center": [10.98, -74.83],
//	  "bounds": [[10.9, -74.9], [11.1, -74.7]],
//	  "layers": [{"name": "rwi", "marker": "circle", "data": {"type": "FeatureCollection", ...}}]
//	}
//
// where center and bounds use Leaflet's [lat, lon] order while the GeoJSON
// inside each layer keeps [lon, lat].
package mapview

import (
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geocookbook/internal/geometry"
)

const (
	// DefaultTiles is the basemap used when none is configured.
	DefaultTiles = "Cartodb dark_matter"

	// DefaultMinZoom is the overview zoom level.
	DefaultMinZoom = 5

	// MaxZoom is the deepest zoom level web basemaps serve.
	MaxZoom = 22
)

// DefaultCenter is Barranquilla, Colombia.
var DefaultCenter = LatLon{Lat: 10.982781372175843, Lon: -74.82745259291546}

var (
	// ErrInvalidView is returned for out of range zoom levels or coordinates.
	ErrInvalidView = errors.New("invalid map view")

	// ErrInvalidLayer is returned by AddLayer for unusable layers.
	ErrInvalidLayer = errors.New("invalid map layer")
)

// Marker selects how point features are drawn.
type Marker string

const (
	// MarkerDefault leaves point styling to the client.
	MarkerDefault Marker = ""

	// MarkerCircle draws points as small circles.
	MarkerCircle Marker = "circle"
)

// LatLon is a map position. It encodes as [lat, lon].
type LatLon struct {
	Lat float64
	Lon float64
}

// MarshalJSON encodes the position as a two element array.
func (p LatLon) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Lat, p.Lon})
}

// Valid reports whether p is a finite WGS84 position.
func (p LatLon) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Layer is one named GeoJSON overlay.
type Layer struct {
	Name   string                     `json:"name"`
	Marker Marker                     `json:"marker,omitempty"`
	Data   *geojson.FeatureCollection `json:"data"`

	bound    orb.Bound
	hasBound bool
}

// Map is a map document. Build one with New and AddLayer.
type Map struct {
	Tiles   string     `json:"tiles"`
	MinZoom int        `json:"min_zoom"`
	Center  LatLon     `json:"center"`
	Bounds  *[2]LatLon `json:"bounds,omitempty"`
	Layers  []*Layer   `json:"layers"`
}

// New returns an empty map. An empty tiles name selects DefaultTiles.
func New(tiles string, minZoom int, center LatLon) (*Map, error) {
	if minZoom < 0 || minZoom > MaxZoom {
		return nil, fmt.Errorf("%w: zoom %d outside 0..%d", ErrInvalidView, minZoom, MaxZoom)
	}
	if !center.Valid() {
		return nil, fmt.Errorf("%w: center (%v, %v) is not a WGS84 position", ErrInvalidView, center.Lat, center.Lon)
	}
	if tiles == "" {
		tiles = DefaultTiles
	}
	return &Map{
		Tiles:   tiles,
		MinZoom: minZoom,
		Center:  center,
		Layers:  []*Layer{},
	}, nil
}

// AddLayer appends table as a layer drawn above the existing ones. The
// table must be in EPSG:4326 and the name unique within the map.
func (m *Map) AddLayer(name string, table *geometry.Table, marker Marker) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidLayer)
	}
	if table == nil {
		return fmt.Errorf("%w: layer %q has no table", ErrInvalidLayer, name)
	}
	if table.CRS != geometry.DefaultCRS {
		return fmt.Errorf("%w: layer %q is in %s, web maps need %s", ErrInvalidLayer, name, table.CRS, geometry.DefaultCRS)
	}
	if m.Layer(name) != nil {
		return fmt.Errorf("%w: duplicate layer %q", ErrInvalidLayer, name)
	}

	layer := &Layer{
		Name:   name,
		Marker: marker,
		Data:   table.FeatureCollection(),
	}
	layer.bound, layer.hasBound = table.Bounds()
	m.Layers = append(m.Layers, layer)
	m.updateBounds()
	return nil
}

// Layer returns the layer called name, or nil.
func (m *Map) Layer(name string) *Layer {
	for _, l := range m.Layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// FeatureCount is the number of features across all layers.
func (m *Map) FeatureCount() int {
	n := 0
	for _, l := range m.Layers {
		n += len(l.Data.Features)
	}
	return n
}

func (m *Map) updateBounds() {
	var (
		bound orb.Bound
		ok    bool
	)
	for _, l := range m.Layers {
		if !l.hasBound {
			continue
		}
		if !ok {
			bound, ok = l.bound, true
			continue
		}
		bound = bound.Union(l.bound)
	}
	if !ok {
		m.Bounds = nil
		return
	}
	m.Bounds = &[2]LatLon{
		{Lat: bound.Min.Lat(), Lon: bound.Min.Lon()},
		{Lat: bound.Max.Lat(), Lon: bound.Max.Lon()},
	}
}
