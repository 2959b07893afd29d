// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/geocookbook/internal/config"
	"github.com/tomtom215/geocookbook/internal/logging"
	"github.com/tomtom215/geocookbook/internal/metrics"
)

// Table names created by the dataset loaders.
const (
	TableWealthIndex    = "rwi"
	TableBoundariesAdm2 = "boundaries_adm2"
	TableBoundariesAdm0 = "boundaries_adm0"

	// ViewBoundaries aliases boundaries_adm2; the cookbook queries read it.
	ViewBoundaries = "boundaries"
)

// LoadDatasets loads the wealth index and both boundary layers named in cfg.
func (s *Session) LoadDatasets(ctx context.Context, cfg config.DatasetsConfig) error {
	if _, err := s.LoadWealthIndex(ctx, cfg.WealthIndexCSV); err != nil {
		return err
	}
	return s.LoadBoundaries(ctx, cfg.BoundariesAdm2, cfg.BoundariesAdm0)
}

// LoadWealthIndex (re)creates the rwi table from a relative wealth index
// CSV with longitude, latitude, rwi and error columns. Each row becomes a
// point geometry. It returns the number of rows loaded.
func (s *Session) LoadWealthIndex(ctx context.Context, csvSource string) (int64, error) {
	if err := s.checkSource(csvSource); err != nil {
		return 0, err
	}

	stmt := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS
		SELECT rwi, error, ST_Point(longitude, latitude) AS geom
		FROM read_csv(%s)`, TableWealthIndex, quoteLiteral(csvSource))

	if err := s.timedExec(ctx, "load", TableWealthIndex, stmt); err != nil {
		return 0, fmt.Errorf("failed to load wealth index from %s: %w", csvSource, err)
	}
	return s.recordRows(ctx, TableWealthIndex, csvSource)
}

// LoadBoundaries (re)creates boundaries_adm2 and boundaries_adm0 with
// ST_Read. The municipal layer's MPIO_CNMBR and DPTO_CNMBR columns are
// renamed to ADM2_NAME and ADM1_NAME. The boundaries view is recreated
// over boundaries_adm2.
func (s *Session) LoadBoundaries(ctx context.Context, adm2Source, adm0Source string) error {
	for _, src := range []string{adm2Source, adm0Source} {
		if err := s.checkSource(src); err != nil {
			return err
		}
	}

	adm2 := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS
		SELECT * EXCLUDE (DPTO_CNMBR, MPIO_CNMBR),
			MPIO_CNMBR AS ADM2_NAME,
			DPTO_CNMBR AS ADM1_NAME
		FROM ST_Read(%s)`, TableBoundariesAdm2, quoteLiteral(adm2Source))
	if err := s.timedExec(ctx, "load", TableBoundariesAdm2, adm2); err != nil {
		return fmt.Errorf("failed to load admin 2 boundaries from %s: %w", adm2Source, err)
	}
	if _, err := s.recordRows(ctx, TableBoundariesAdm2, adm2Source); err != nil {
		return err
	}

	adm0 := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS SELECT * FROM ST_Read(%s)`,
		TableBoundariesAdm0, quoteLiteral(adm0Source))
	if err := s.timedExec(ctx, "load", TableBoundariesAdm0, adm0); err != nil {
		return fmt.Errorf("failed to load admin 0 boundaries from %s: %w", adm0Source, err)
	}
	if _, err := s.recordRows(ctx, TableBoundariesAdm0, adm0Source); err != nil {
		return err
	}

	return s.createBoundariesView(ctx)
}

func (s *Session) createBoundariesView(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS SELECT * FROM %s`, ViewBoundaries, TableBoundariesAdm2)
	if err := s.timedExec(ctx, "create_view", ViewBoundaries, stmt); err != nil {
		return fmt.Errorf("failed to create %s view: %w", ViewBoundaries, err)
	}
	return nil
}

// checkSource rejects loads that cannot succeed before any SQL runs.
func (s *Session) checkSource(src string) error {
	if strings.TrimSpace(src) == "" {
		return fmt.Errorf("%w: dataset source is empty", ErrInvalidArgument)
	}
	if err := s.requireSpatial(); err != nil {
		return err
	}
	if isRemote(src) && !s.httpfsAvailable {
		return fmt.Errorf("%w: %s", ErrHTTPFSUnavailable, src)
	}
	return nil
}

func isRemote(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "s3://")
}

func (s *Session) recordRows(ctx context.Context, table, source string) (int64, error) {
	var n int64
	if err := s.scalar(ctx, "count", table, &n, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)); err != nil {
		return 0, err
	}
	metrics.SetDatasetRows(table, n)
	logging.Info().
		Str("table", table).
		Str("source", source).
		Int64("rows", n).
		Msg("Dataset loaded")
	return n, nil
}

// timedExec is exec with query metrics.
func (s *Session) timedExec(ctx context.Context, operation, table, stmt string, args ...any) error {
	start := time.Now()
	err := s.exec(ctx, stmt, args...)
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
	return err
}
