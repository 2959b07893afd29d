// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package geometry

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedGeometry matches every *MalformedGeometryError via errors.Is.
	ErrMalformedGeometry = errors.New("malformed geometry")

	// ErrMissingColumn is returned when a row lacks the geometry column.
	ErrMissingColumn = errors.New("geometry column missing")
)

// maxQuotedValue bounds how much of an offending value ends up in error text.
const maxQuotedValue = 64

// MalformedGeometryError reports a geometry value that is present but is not
// valid WKT. A null value is never malformed.
type MalformedGeometryError struct {
	Row    int // zero-based row index, -1 when not parsing a table
	Column string
	Value  string
	Err    error
}

func (e *MalformedGeometryError) Error() string {
	value := e.Value
	if len(value) > maxQuotedValue {
		value = value[:maxQuotedValue] + "..."
	}
	switch {
	case e.Row < 0:
		return fmt.Sprintf("malformed geometry %q: %v", value, e.Err)
	case e.Column == "":
		return fmt.Sprintf("malformed geometry at position %d (%q): %v", e.Row, value, e.Err)
	}
	return fmt.Sprintf("malformed geometry in column %q at row %d (%q): %v", e.Column, e.Row, value, e.Err)
}

// Unwrap returns the parser error.
func (e *MalformedGeometryError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMalformedGeometry) hold.
func (e *MalformedGeometryError) Is(target error) bool {
	return target == ErrMalformedGeometry
}
