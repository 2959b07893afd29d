// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

/*
Package supervisor provides process supervision for the geocookbook server
using suture v4.

# Tree

	RootSupervisor ("geocookbook")
	├── DataSupervisor ("data-layer")
	│   └── DatasetService (when datasets.load_on_startup is set)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

The layers count failures independently: a dataset source that keeps
timing out backs off in the data layer while the HTTP server stays up and
health probes report the session state.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewDatasetService(session, cfg.Datasets))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)

# Logging

Supervisor events (service failures, backoff, restarts) go through the
sutureslog event hook to the slog logger passed to NewSupervisorTree. The
server passes logging.NewSlogLogger so they end up in the zerolog stream.
*/
package supervisor
