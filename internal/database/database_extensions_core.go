// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

/*
database_extensions_core.go - Core Extension Installation Logic

Every extension goes through the same table-driven install path; the
extensionSpec says how to verify it and which Session flag it drives.
*/

package database

import (
	"fmt"

	"github.com/tomtom215/geocookbook/internal/logging"
	"github.com/tomtom215/geocookbook/internal/metrics"
)

// extensionSpec defines the specification for installing a DuckDB extension
type extensionSpec struct {
	// Name is the extension name (e.g., "spatial", "httpfs")
	Name string
	// VerifyQuery is an optional single-value SQL query proving the extension works
	VerifyQuery string
	// VerifyResultHandler checks the verify query result (returns true if valid)
	VerifyResultHandler func(any) bool
	// AvailabilityField points at the Session flag tracking availability
	AvailabilityField func(*Session) *bool
	// WarningMessage is logged when an optional extension is unavailable
	WarningMessage string
}

// knownExtensions maps extension names to their specs. Extensions not
// listed here are installed with a bare spec and no availability flag.
var knownExtensions = map[string]*extensionSpec{
	"spatial": {
		Name:        "spatial",
		VerifyQuery: "SELECT ST_AsText(ST_Point(1, 2))",
		VerifyResultHandler: func(v any) bool {
			s, ok := v.(string)
			return ok && s == "POINT (1 2)"
		},
		AvailabilityField: func(s *Session) *bool { return &s.spatialAvailable },
		WarningMessage:    "Spatial extension unavailable (DUCKDB_SPATIAL_OPTIONAL=true), spatial operations will fail",
	},
	"httpfs": {
		Name:              "httpfs",
		AvailabilityField: func(s *Session) *bool { return &s.httpfsAvailable },
		WarningMessage:    "httpfs extension unavailable, remote dataset sources cannot be read",
	},
}

// specFor returns the spec for name, or a bare one for unknown extensions.
func specFor(name string) *extensionSpec {
	if spec, ok := knownExtensions[name]; ok {
		return spec
	}
	return &extensionSpec{
		Name:           name,
		WarningMessage: fmt.Sprintf("%s extension unavailable", name),
	}
}

// installCoreExtension installs and loads one extension.
//
// Fallback order:
//  1. LOAD directly when the extension file is already on disk
//  2. INSTALL (with retry), then LOAD
//  3. FORCE INSTALL (with retry), then LOAD
//
// When optional is true a failure only marks the extension unavailable.
func (s *Session) installCoreExtension(spec *extensionSpec, optional bool) error {
	if isExtensionInstalledLocally(spec.Name) {
		logging.Debug().Str("extension", spec.Name).Msg("Extension found locally, skipping download")
		if err := s.execWithHardTimeout(fmt.Sprintf("LOAD %s;", spec.Name)); err == nil {
			return s.verifyExtension(spec, optional)
		}
	}

	installErr := s.execWithRetry(fmt.Sprintf("INSTALL %s;", spec.Name), defaultRetryConfig)
	if installErr == nil {
		if err := s.execWithHardTimeout(fmt.Sprintf("LOAD %s;", spec.Name)); err == nil {
			return s.verifyExtension(spec, optional)
		}
	}

	if forceErr := s.execWithRetry(fmt.Sprintf("FORCE INSTALL %s;", spec.Name), defaultRetryConfig); forceErr != nil {
		if optional {
			s.setExtensionUnavailable(spec, forceErr)
			return nil
		}
		return fmt.Errorf("failed to install %s extension after retries: install error: %v, force install error: %w",
			spec.Name, installErr, forceErr)
	}

	if err := s.execWithHardTimeout(fmt.Sprintf("LOAD %s;", spec.Name)); err != nil {
		if optional {
			s.setExtensionUnavailable(spec, err)
			return nil
		}
		return fmt.Errorf("failed to load %s extension: %w", spec.Name, err)
	}

	return s.verifyExtension(spec, optional)
}

// verifyExtension runs the spec's verify query, if any, and records the
// outcome. Uses queryRowWithHardTimeout because CGO calls don't respect
// context cancellation.
func (s *Session) verifyExtension(spec *extensionSpec, optional bool) error {
	if spec.VerifyQuery == "" {
		s.setExtensionAvailable(spec)
		return nil
	}

	result, err := s.queryRowWithHardTimeout(spec.VerifyQuery)
	if err != nil {
		if optional {
			s.setExtensionUnavailable(spec, err)
			return nil
		}
		return fmt.Errorf("%s extension loaded but functions unavailable: %w", spec.Name, err)
	}

	if spec.VerifyResultHandler != nil && !spec.VerifyResultHandler(result) {
		if optional {
			s.setExtensionUnavailable(spec, fmt.Errorf("unexpected verify result %v", result))
			return nil
		}
		return fmt.Errorf("%s extension verification failed: unexpected result %v", spec.Name, result)
	}

	s.setExtensionAvailable(spec)
	return nil
}

// setExtensionUnavailable marks an extension as unavailable and logs a warning
func (s *Session) setExtensionUnavailable(spec *extensionSpec, cause error) {
	if field := spec.AvailabilityField; field != nil {
		*field(s) = false
	}
	metrics.SetExtensionAvailable(spec.Name, false)
	if spec.WarningMessage != "" {
		logging.Warn().Str("extension", spec.Name).Err(cause).Msg(spec.WarningMessage)
	}
}

// setExtensionAvailable marks an extension as available
func (s *Session) setExtensionAvailable(spec *extensionSpec) {
	if field := spec.AvailabilityField; field != nil {
		*field(s) = true
	}
	metrics.SetExtensionAvailable(spec.Name, true)
	logging.Debug().Str("extension", spec.Name).Msg("Extension loaded")
}
