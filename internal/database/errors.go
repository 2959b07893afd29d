// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package database

import (
	"errors"
	"io"
	"log/slog"

	"github.com/tomtom215/geocookbook/internal/logging"
)

var (
	// ErrNotFound is returned when a named boundary or table does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSpatialUnavailable is returned by spatial operations when the
	// session was opened without the spatial extension.
	ErrSpatialUnavailable = errors.New("spatial extension not available")

	// ErrHTTPFSUnavailable is returned when a remote source is requested
	// without the httpfs extension.
	ErrHTTPFSUnavailable = errors.New("httpfs extension not available")

	// ErrSessionClosed is returned by every operation after Close.
	ErrSessionClosed = errors.New("database session closed")

	// ErrInvalidArgument is returned for arguments rejected before any SQL runs.
	ErrInvalidArgument = errors.New("invalid argument")
)

// closeWithLog closes a resource and logs any error.
// Use this for cleanup where errors should be acknowledged but not fail the operation.
func closeWithLog(closer io.Closer, logger *slog.Logger, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		if logger != nil {
			logger.Error("failed to close resource",
				"type", resourceType,
				"error", err)
		} else {
			logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
		}
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
