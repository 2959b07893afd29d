// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

/*
database_extensions.go - DuckDB Extension Installation

Extensions used by the cookbook:
  - spatial: GEOMETRY type, ST_* functions, ST_Read (GDAL vector formats)
  - httpfs: http(s) and s3 sources for read_csv and ST_Read

Extensions are pre-installed in container images. Auto-install and
auto-load are disabled in the DSN, so nothing is fetched behind the
session's back; installCoreExtension does it explicitly with hard timeouts
and retries.

Configuration:
  - DUCKDB_EXTENSIONS: extensions to load, in order (default spatial,httpfs)
  - DUCKDB_SPATIAL_OPTIONAL=true: allow startup without spatial (testing only)
  - DUCKDB_EXTENSION_TIMEOUT: hard timeout per INSTALL/LOAD statement
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/tomtom215/geocookbook/internal/logging"
)

// extensionRetryConfig controls retry behavior for extension operations
type extensionRetryConfig struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	BackoffMult float64
}

// defaultRetryConfig provides sensible defaults for extension loading retries
var defaultRetryConfig = extensionRetryConfig{
	MaxRetries:  3,
	BaseDelay:   2 * time.Second,
	MaxDelay:    30 * time.Second,
	BackoffMult: 2.0,
}

// defaultExtensionTimeout applies when the config leaves the timeout unset.
const defaultExtensionTimeout = 30 * time.Second

// duckdbVersion is the DuckDB version bundled by duckdb-go in go.mod; it
// names the local extension directory.
const duckdbVersion = "v1.4.3"

// isExtensionInstalledLocally checks if an extension file exists in the local
// DuckDB extension directory, so network INSTALL can be skipped.
func isExtensionInstalledLocally(extensionName string) bool {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return false
	}

	// ~/.duckdb/extensions/{version}/{platform}/{name}.duckdb_extension
	platform := runtime.GOOS + "_" + runtime.GOARCH
	extPath := filepath.Join(homeDir, ".duckdb", "extensions", duckdbVersion, platform, extensionName+".duckdb_extension")

	_, err = os.Stat(extPath)
	return err == nil
}

// installExtensions installs and loads cfg.Extensions in order. A missing
// spatial extension is fatal unless SpatialOptional is set; every other
// extension is optional.
func (s *Session) installExtensions() error {
	for _, name := range s.cfg.Extensions {
		optional := name != "spatial" || s.cfg.SpatialOptional
		if err := s.installCoreExtension(specFor(name), optional); err != nil {
			return err
		}
	}

	if !s.spatialAvailable && !s.cfg.SpatialOptional {
		return fmt.Errorf("%w: add spatial to DUCKDB_EXTENSIONS or set DUCKDB_SPATIAL_OPTIONAL=true", ErrSpatialUnavailable)
	}
	return nil
}

func (s *Session) extensionTimeout() time.Duration {
	if s.cfg.ExtensionTimeout > 0 {
		return s.cfg.ExtensionTimeout
	}
	return defaultExtensionTimeout
}

// execResult holds the result of an async exec operation
type execResult struct {
	err error
}

// queryResult holds the result of an async query operation
type queryResult struct {
	value any
	err   error
}

// execWithHardTimeout executes a statement with a goroutine-based hard timeout.
// DuckDB CGO calls don't respect context cancellation; ExecContext still gets
// a context for resource cleanup, but the timeout is enforced via select.
// Only used while the session is being opened, before it is shared.
func (s *Session) execWithHardTimeout(query string) error {
	timeout := s.extensionTimeout()
	resultCh := make(chan execResult, 1)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	go func() {
		_, err := s.conn.ExecContext(ctx, query)
		resultCh <- execResult{err: err}
	}()

	select {
	case result := <-resultCh:
		return result.err
	case <-time.After(timeout):
		return fmt.Errorf("operation timed out after %v", timeout)
	}
}

// queryRowWithHardTimeout executes a query and scans a single value with a hard timeout.
func (s *Session) queryRowWithHardTimeout(query string) (any, error) {
	timeout := s.extensionTimeout()
	resultCh := make(chan queryResult, 1)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	go func() {
		var result any
		err := s.conn.QueryRowContext(ctx, query).Scan(&result)
		resultCh <- queryResult{value: result, err: err}
	}()

	select {
	case result := <-resultCh:
		return result.value, result.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("query timed out after %v", timeout)
	}
}

// execWithRetry executes a statement with retry and exponential backoff for
// transient network failures while downloading extensions.
func (s *Session) execWithRetry(query string, config extensionRetryConfig) error {
	var lastErr error
	delay := config.BaseDelay

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.Debug().
				Int("attempt", attempt).
				Dur("delay", delay).
				Str("query", query).
				Msg("Retrying extension operation")
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * config.BackoffMult)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}

		err := s.execWithHardTimeout(query)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		logging.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", config.MaxRetries+1).
			Msg("Extension operation failed, will retry")
	}

	return fmt.Errorf("extension operation failed after %d attempts: %w", config.MaxRetries+1, lastErr)
}

// isRetryable reports whether err looks like a transient network failure.
func isRetryable(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "temporary failure")
}
