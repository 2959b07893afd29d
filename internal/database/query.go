// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/geocookbook/internal/geometry"
	"github.com/tomtom215/geocookbook/internal/metrics"
)

// Query runs query on the pinned connection and returns every row, keyed by
// column name, in result order.
func (s *Session) Query(ctx context.Context, query string, args ...any) (geometry.QueryResult, error) {
	return s.query(ctx, "query", "", query, args...)
}

// QueryTable runs query and materializes geomColumn, which must hold WKT
// text (wrap GEOMETRY columns in ST_AsText).
func (s *Session) QueryTable(ctx context.Context, query, geomColumn string, args ...any) (*geometry.Table, error) {
	result, err := s.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return geometry.Materialize(result, geomColumn)
}

// query is Query with the operation and table labels used for metrics.
func (s *Session) query(ctx context.Context, operation, table, query string, args ...any) (geometry.QueryResult, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	result, err := s.queryLocked(ctx, query, args...)
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
	if err != nil {
		return geometry.QueryResult{}, fmt.Errorf("%s: %w", operation, err)
	}
	return result, nil
}

func (s *Session) queryLocked(ctx context.Context, query string, args ...any) (geometry.QueryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return geometry.QueryResult{}, ErrSessionClosed
	}

	return runQuery(ctx, s.conn, query, args...)
}

// runQuery executes query on conn and scans every row. The caller holds s.mu.
func runQuery(ctx context.Context, conn *sql.Conn, query string, args ...any) (geometry.QueryResult, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return geometry.QueryResult{}, err
	}
	defer closeWithLog(rows, nil, "rows")

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) (geometry.QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return geometry.QueryResult{}, fmt.Errorf("failed to read columns: %w", err)
	}

	result := geometry.QueryResult{Columns: columns, Rows: []geometry.Row{}}
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return geometry.QueryResult{}, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(geometry.Row, len(columns))
		for i, c := range columns {
			row[c] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return geometry.QueryResult{}, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

// normalizeValue converts driver-specific numeric types into plain Go
// values that encode cleanly as JSON.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case duckdb.Decimal:
		return x.Float64()
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}
		return x.String()
	case duckdb.UUID:
		return x.String()
	default:
		return v
	}
}

// scalar runs a single-row, single-column query and scans it into dest.
func (s *Session) scalar(ctx context.Context, operation, table string, dest any, query string, args ...any) error {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err := s.scalarLocked(ctx, dest, query, args...)
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

func (s *Session) scalarLocked(ctx context.Context, dest any, query string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	return s.conn.QueryRowContext(ctx, query, args...).Scan(dest)
}
