// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

// Package validation provides struct validation using go-playground/validator v10.
//
// A singleton validator caches struct metadata and carries two custom tags
// for the cookbook's inputs: admname for department and municipality names,
// and identifier for table names. Error fields are named after the `query`
// tag so a failure on
//
//	type BuffersRequest struct {
//	    Adm2   string  `query:"adm2" validate:"required,admname,max=100"`
//	    Meters float64 `query:"meters" validate:"gt=0,lte=50000"`
//	}
//
// reads "meters must be greater than 0" rather than naming the Go field.
//
// # Usage
//
//	if errs := validation.ValidateStruct(&req); errs != nil {
//	    message, details := errs.Summary()
//	    // respond 400 VALIDATION_ERROR with message and details
//	}
//
// Summary reports a single field's name and tag, or a "fields" list when
// several parameters failed. Rejected values are never echoed.
package validation
