// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package geometry

import (
	"github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"
)

// goJSON plugs goccy/go-json into orb's GeoJSON encoder.
type goJSON struct{}

func (goJSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (goJSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func init() {
	geojson.CustomJSONMarshaler = goJSON{}
	geojson.CustomJSONUnmarshaler = goJSON{}
}

// FeatureCollection converts the table into a GeoJSON feature collection.
// Attributes become feature properties. A null geometry is encoded as
// "geometry": null.
func (t *Table) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, len(t.Features))

	for _, f := range t.Features {
		feature := geojson.NewFeature(f.Geometry)
		for k, v := range f.Attributes {
			feature.Properties[k] = v
		}
		fc.Append(feature)
	}

	if bound, ok := t.Bounds(); ok {
		fc.BBox = geojson.NewBBox(bound)
	}
	return fc
}
