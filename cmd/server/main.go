// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/geocookbook/internal/api"
	"github.com/tomtom215/geocookbook/internal/config"
	"github.com/tomtom215/geocookbook/internal/database"
	"github.com/tomtom215/geocookbook/internal/logging"
	"github.com/tomtom215/geocookbook/internal/metrics"
	"github.com/tomtom215/geocookbook/internal/raster"
	"github.com/tomtom215/geocookbook/internal/raster/gdalraster"
	"github.com/tomtom215/geocookbook/internal/supervisor"
	"github.com/tomtom215/geocookbook/internal/supervisor/services"
	"github.com/tomtom215/geocookbook/internal/zonal"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logging.Init(logCfg)

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("raster", cfg.Zonal.RasterPath).
		Msg("Starting geocookbook")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().
		Bool("spatial", session.SpatialAvailable()).
		Bool("httpfs", session.HTTPFSAvailable()).
		Msg("Database initialized")

	var opener raster.Opener = gdalraster.New()
	if cfg.Zonal.BreakerFailures > 0 {
		opener = raster.NewBreakerOpener(opener, raster.BreakerConfig{
			Failures: cfg.Zonal.BreakerFailures,
			Timeout:  cfg.Zonal.BreakerTimeout,
		})
	}
	aggregator := zonal.New(opener, zonal.WithAllTouched(cfg.Zonal.AllTouched))
	if err := session.RegisterZonalUDF(aggregator); err != nil {
		return fmt.Errorf("failed to register zonal function: %w", err)
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create supervisor tree: %w", err)
	}

	handler := api.NewHandler(session, cfg, version)

	if cfg.Datasets.LoadOnStartup {
		loader := services.NewDatasetService(session, cfg.Datasets)
		loader.SetOnLoaded(handler.OnDatasetsLoaded)
		tree.AddDataService(loader)
	} else {
		logging.Info().Msg("Dataset loading on startup disabled")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED")
	}
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.Security))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// Zonal requests may take the whole query timeout before writing.
		WriteTimeout: cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal, waiting for supervisor to finish")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", treeErr)
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}
