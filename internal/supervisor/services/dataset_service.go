// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/geocookbook/internal/config"
	"github.com/tomtom215/geocookbook/internal/database"
	"github.com/tomtom215/geocookbook/internal/logging"
)

// DatasetLoader loads the configured vector datasets into a session.
// *database.Session implements it.
type DatasetLoader interface {
	LoadDatasets(ctx context.Context, cfg config.DatasetsConfig) error
}

// DatasetService loads the datasets once under supervision.
//
// A successful load ends the service with suture.ErrDoNotRestart. A
// transient failure, such as an unreachable remote source, is returned so
// the supervisor retries with backoff. Failures no retry can fix (missing
// extension, empty source, closed session) also end the service; the API
// keeps serving and reports the missing tables per request.
type DatasetService struct {
	loader   DatasetLoader
	cfg      config.DatasetsConfig
	name     string
	attempts atomic.Int32
	loaded   atomic.Bool
	onLoaded func()
}

// NewDatasetService creates the loader service for cfg.
func NewDatasetService(loader DatasetLoader, cfg config.DatasetsConfig) *DatasetService {
	return &DatasetService{
		loader: loader,
		cfg:    cfg,
		name:   "dataset-loader",
	}
}

// SetOnLoaded registers fn to run after each successful load. Call it
// before the service is added to a supervisor.
func (d *DatasetService) SetOnLoaded(fn func()) {
	d.onLoaded = fn
}

// Serve implements suture.Service.
func (d *DatasetService) Serve(ctx context.Context) error {
	attempt := d.attempts.Add(1)
	start := time.Now()

	err := d.loader.LoadDatasets(ctx, d.cfg)
	switch {
	case err == nil:
		d.loaded.Store(true)
		logging.Info().
			Int32("attempt", attempt).
			Dur("duration", time.Since(start)).
			Msg("Datasets loaded")
		if d.onLoaded != nil {
			d.onLoaded()
		}
		return suture.ErrDoNotRestart

	case ctx.Err() != nil:
		return ctx.Err()

	case permanentLoadError(err):
		logging.Error().Err(err).Int32("attempt", attempt).Msg("Dataset load failed permanently")
		return suture.ErrDoNotRestart

	default:
		logging.Warn().Err(err).Int32("attempt", attempt).Msg("Dataset load failed, will retry")
		return fmt.Errorf("dataset load attempt %d: %w", attempt, err)
	}
}

// Loaded reports whether a load has succeeded.
func (d *DatasetService) Loaded() bool {
	return d.loaded.Load()
}

// Attempts returns the number of load attempts so far.
func (d *DatasetService) Attempts() int {
	return int(d.attempts.Load())
}

// String names the service in supervisor events.
func (d *DatasetService) String() string {
	return d.name
}

func permanentLoadError(err error) bool {
	return errors.Is(err, database.ErrSpatialUnavailable) ||
		errors.Is(err, database.ErrHTTPFSUnavailable) ||
		errors.Is(err, database.ErrInvalidArgument) ||
		errors.Is(err, database.ErrSessionClosed)
}
