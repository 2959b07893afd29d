// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

// Package geometry turns tabular query results carrying WKT text into
// geospatial tables of parsed orb geometries.
//
// The query engine is expected to emit geometry as text, e.g.
//
//	SELECT rwi, ST_AsText(geom) AS geometry FROM rwi
//
// and Materialize parses the "geometry" column row by row. Null values stay
// null; text that does not parse fails the whole call with a
// *MalformedGeometryError, since a silently dropped row would later read as a
// negative spatial match instead of a data error.
package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// DefaultCRS is assigned to every materialized table unless WithCRS is given.
// It is assumed, not verified against the source data.
const DefaultCRS = "EPSG:4326"

// Row is a single query result row keyed by column name.
type Row map[string]any

// QueryResult is an ordered, immutable set of rows as produced by the query engine.
type QueryResult struct {
	Columns []string
	Rows    []Row
}

// Feature is one row of a Table: the non-geometry attributes plus the parsed
// geometry, which is nil for a null source value.
type Feature struct {
	Attributes map[string]any
	Geometry   orb.Geometry
}

// Table is a geospatial table. CRS applies uniformly to every feature.
type Table struct {
	CRS            string
	GeometryColumn string
	Columns        []string // attribute columns, geometry column excluded
	Features       []Feature
}

type options struct {
	crs string
}

// Option configures Materialize.
type Option func(*options)

// WithCRS tags the table with a CRS other than DefaultCRS.
func WithCRS(code string) Option {
	return func(o *options) {
		if code != "" {
			o.crs = code
		}
	}
}

// Materialize parses the WKT values of column in every row of result.
//
// Every row must contain column (its value may be nil). Values must be nil,
// string or []byte; anything else, or text that is not WKT, yields a
// *MalformedGeometryError naming the row.
func Materialize(result QueryResult, column string, opts ...Option) (*Table, error) {
	o := options{crs: DefaultCRS}
	for _, opt := range opts {
		opt(&o)
	}

	table := &Table{
		CRS:            o.crs,
		GeometryColumn: column,
		Columns:        attributeColumns(result.Columns, column),
		Features:       make([]Feature, 0, len(result.Rows)),
	}

	for i, row := range result.Rows {
		raw, ok := row[column]
		if !ok {
			return nil, fmt.Errorf("%w: %q not present in row %d", ErrMissingColumn, column, i)
		}

		geom, err := parseValue(raw)
		if err != nil {
			err.Row = i
			err.Column = column
			return nil, err
		}

		attrs := make(map[string]any, len(row))
		for k, v := range row {
			if k != column {
				attrs[k] = v
			}
		}
		table.Features = append(table.Features, Feature{Attributes: attrs, Geometry: geom})
	}

	return table, nil
}

// ParseWKT parses a single WKT string. Z and M ordinates are dropped and
// POINT EMPTY yields a nil geometry. The returned error, if any, is a
// *MalformedGeometryError with Row set to -1.
func ParseWKT(text string) (orb.Geometry, error) {
	geom, err := parseText(text)
	if err != nil {
		return nil, err
	}
	return geom, nil
}

// parseValue returns (nil, nil) for null values.
func parseValue(raw any) (orb.Geometry, *MalformedGeometryError) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return parseText(v)
	case []byte:
		if v == nil {
			return nil, nil
		}
		return parseText(string(v))
	default:
		return nil, &MalformedGeometryError{
			Row:   -1,
			Value: fmt.Sprintf("%v", v),
			Err:   fmt.Errorf("expected WKT text, got %T", raw),
		}
	}
}

func parseText(text string) (orb.Geometry, *MalformedGeometryError) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &MalformedGeometryError{Row: -1, Value: text, Err: fmt.Errorf("empty WKT text")}
	}
	flat := flattenDimensions(trimmed)
	if strings.EqualFold(flat, "POINT EMPTY") {
		return nil, nil
	}
	geom, err := wkt.Unmarshal(normalizeMultiPoint(flat))
	if err != nil {
		return nil, &MalformedGeometryError{Row: -1, Value: text, Err: err}
	}
	return geom, nil
}

// flattenDimensions rewrites WKT to its XY form: Z, M and ZM tags are
// removed and coordinates keep only their first two ordinates, so
// POINT Z (1 2 3) becomes POINT(1 2).
func flattenDimensions(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', ')', ',':
			b.WriteString(flattenRun(s[start:i]))
			b.WriteByte(s[i])
			start = i + 1
		}
	}
	b.WriteString(flattenRun(s[start:]))
	return b.String()
}

// flattenRun handles the text between two delimiters: either a coordinate
// tuple or a geometry keyword with optional dimension and EMPTY tags.
func flattenRun(run string) string {
	fields := strings.Fields(run)
	if len(fields) == 0 {
		return run
	}
	if _, err := strconv.ParseFloat(fields[0], 64); err == nil {
		if len(fields) <= 2 {
			return run
		}
		return fields[0] + " " + fields[1]
	}

	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		switch strings.ToUpper(f) {
		case "Z", "M", "ZM":
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == len(fields) {
		return run
	}
	return strings.Join(kept, " ")
}

// normalizeMultiPoint rewrites MULTIPOINT(1 2, 3 4) into the parenthesised
// MULTIPOINT((1 2),(3 4)) form, the only one orb accepts. Other text is
// returned unchanged.
func normalizeMultiPoint(s string) string {
	if len(s) < len("MULTIPOINT") || !strings.EqualFold(s[:len("MULTIPOINT")], "MULTIPOINT") {
		return s
	}
	open := strings.IndexByte(s, '(')
	end := strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return s
	}
	body := s[open+1 : end]
	if strings.ContainsRune(body, '(') {
		return s
	}

	parts := strings.Split(body, ",")
	for i, p := range parts {
		parts[i] = "(" + strings.TrimSpace(p) + ")"
	}
	return "MULTIPOINT(" + strings.Join(parts, ",") + ")"
}

func attributeColumns(columns []string, geometryColumn string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if c != geometryColumn {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of features.
func (t *Table) Len() int {
	return len(t.Features)
}

// NullCount returns how many features carry a null geometry.
func (t *Table) NullCount() int {
	n := 0
	for _, f := range t.Features {
		if f.Geometry == nil {
			n++
		}
	}
	return n
}

// Bounds returns the bound of all non-null geometries. ok is false when the
// table has no geometry at all.
func (t *Table) Bounds() (bound orb.Bound, ok bool) {
	for _, f := range t.Features {
		if f.Geometry == nil {
			continue
		}
		b := f.Geometry.Bound()
		if b.IsEmpty() {
			continue
		}
		if !ok {
			bound, ok = b, true
			continue
		}
		bound = bound.Union(b)
	}
	return bound, ok
}

// WKT re-encodes the geometry of feature i, or returns "" for a null geometry.
func (t *Table) WKT(i int) string {
	g := t.Features[i].Geometry
	if g == nil {
		return ""
	}
	return wkt.MarshalString(g)
}
