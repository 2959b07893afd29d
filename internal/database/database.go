// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/geocookbook/internal/config"
	"github.com/tomtom215/geocookbook/internal/logging"
)

// Session owns one DuckDB database and one pinned connection. Every
// statement, extension load and UDF registration runs on that connection,
// so per-connection state (loaded extensions, registered functions, temp
// tables) is visible to every later call.
type Session struct {
	db   *sql.DB
	conn *sql.Conn
	cfg  *config.DatabaseConfig

	// mu serializes use of conn. DuckDB connections are not safe for
	// concurrent statements.
	mu sync.Mutex

	spatialAvailable bool
	httpfsAvailable  bool
	closed           bool

	// zonal is the registered apply_zonal_stats function, nil until
	// RegisterZonalUDF.
	zonal *zonalUDF
}

// Open creates the database (or attaches the file at cfg.Path), pins a
// connection and installs the configured extensions.
//
// The spatial extension is required unless cfg.SpatialOptional is set;
// every other extension is best-effort.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is nil")
	}

	if cfg.Path != ":memory:" {
		// 0750 per gosec G301
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	connector, err := duckdb.NewConnector(connectionString(cfg), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to pin connection: %w", err)
	}

	s := &Session{
		db:   db,
		conn: conn,
		cfg:  cfg,
	}

	if err := s.installExtensions(); err != nil {
		closeQuietly(conn)
		closeQuietly(db)
		return nil, err
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("spatial", s.spatialAvailable).
		Bool("httpfs", s.httpfsAvailable).
		Msg("DuckDB session opened")

	return s, nil
}

// connectionString builds the DuckDB DSN. Auto-install and auto-load are
// disabled; extensions are loaded explicitly by installExtensions with
// hard timeouts.
func connectionString(cfg *config.DatabaseConfig) string {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	dsn := fmt.Sprintf("%s?threads=%d&autoinstall_known_extensions=false&autoload_known_extensions=false", cfg.Path, threads)
	if cfg.MaxMemory != "" {
		dsn += "&max_memory=" + cfg.MaxMemory
	}
	if cfg.Path != ":memory:" && cfg.Path != "" {
		dsn += "&access_mode=read_write"
	}
	return dsn
}

// Close releases the pinned connection and the database. It is safe to
// call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	closeWithLog(s.conn, nil, "pinned connection")
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	logging.Info().Str("path", s.cfg.Path).Msg("DuckDB session closed")
	return nil
}

// Ping checks that the pinned connection is alive.
func (s *Session) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	return s.conn.PingContext(ctx)
}

// SpatialAvailable reports whether the spatial extension is loaded.
func (s *Session) SpatialAvailable() bool {
	return s.spatialAvailable
}

// HTTPFSAvailable reports whether remote (http/s3) sources can be read.
func (s *Session) HTTPFSAvailable() bool {
	return s.httpfsAvailable
}

// requireSpatial returns ErrSpatialUnavailable when the spatial extension
// is not loaded.
func (s *Session) requireSpatial() error {
	if !s.spatialAvailable {
		return ErrSpatialUnavailable
	}
	return nil
}

// ensureContext applies the configured query timeout when ctx carries no
// deadline of its own.
func (s *Session) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok || s.cfg.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.QueryTimeout)
}

// exec runs a statement on the pinned connection.
func (s *Session) exec(ctx context.Context, query string, args ...any) error {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	_, err := s.conn.ExecContext(ctx, query, args...)
	return err
}
