// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/geocookbook/internal/geometry"
	"github.com/tomtom215/geocookbook/internal/logging"
	"github.com/tomtom215/geocookbook/internal/zonal"
)

// ZonalUDFName is the SQL name of the zonal sum function.
const ZonalUDFName = "apply_zonal_stats"

// ErrZonalUDFNotRegistered is returned by ZonalPopulation before
// RegisterZonalUDF has been called.
var ErrZonalUDFNotRegistered = errors.New(ZonalUDFName + " is not registered")

// ZonalSummer computes the truncated zonal sum of a set of WKT geometries.
// *zonal.Aggregator implements it.
type ZonalSummer interface {
	ComputeZonalSum(geometries []string, rasterPath string) (int64, error)
}

// zonalUDF adapts a ZonalSummer to a DuckDB scalar function
//
//	apply_zonal_stats(VARCHAR[], VARCHAR) -> BIGINT
//
// A NULL list or path yields NULL. The first Go error raised by a call is
// kept so the caller can recover its type after DuckDB flattens it to text.
type zonalUDF struct {
	summer ZonalSummer

	mu      sync.Mutex
	lastErr error
}

func (u *zonalUDF) Config() duckdb.ScalarFuncConfig {
	varchar, _ := duckdb.NewTypeInfo(duckdb.TYPE_VARCHAR)
	list, _ := duckdb.NewListInfo(varchar)
	bigint, _ := duckdb.NewTypeInfo(duckdb.TYPE_BIGINT)
	return duckdb.ScalarFuncConfig{
		InputTypeInfos: []duckdb.TypeInfo{list, varchar},
		ResultTypeInfo: bigint,
		Volatile:       true,
	}
}

func (u *zonalUDF) Executor() duckdb.ScalarFuncExecutor {
	return duckdb.ScalarFuncExecutor{RowExecutor: u.execute}
}

func (u *zonalUDF) execute(values []driver.Value) (any, error) {
	geometries, err := stringList(values[0])
	if err != nil {
		return nil, u.record(err)
	}
	rasterPath, ok := values[1].(string)
	if !ok {
		return nil, u.record(fmt.Errorf("%w: raster path must be VARCHAR, got %T", ErrInvalidArgument, values[1]))
	}

	sum, err := u.summer.ComputeZonalSum(geometries, rasterPath)
	if err != nil {
		return nil, u.record(err)
	}
	return sum, nil
}

func (u *zonalUDF) record(err error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.lastErr == nil {
		u.lastErr = err
	}
	return err
}

// takeError returns and clears the recorded error.
func (u *zonalUDF) takeError() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	err := u.lastErr
	u.lastErr = nil
	return err
}

// stringList converts a DuckDB VARCHAR[] value. NULL elements become ""
// so they fail WKT parsing at their own position.
func stringList(v driver.Value) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: geometries must be VARCHAR[], got %T", ErrInvalidArgument, v)
	}
	out := make([]string, len(items))
	for i, item := range items {
		switch x := item.(type) {
		case nil:
		case string:
			out[i] = x
		default:
			return nil, fmt.Errorf("%w: geometry %d must be VARCHAR, got %T", ErrInvalidArgument, i, item)
		}
	}
	return out, nil
}

// RegisterZonalUDF registers apply_zonal_stats on the pinned connection,
// backed by summer. Registering again replaces the backing summer.
func (s *Session) RegisterZonalUDF(summer ZonalSummer) error {
	if summer == nil {
		return fmt.Errorf("%w: zonal summer is nil", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.zonal != nil {
		s.zonal.summer = summer
		return nil
	}

	udf := &zonalUDF{summer: summer}
	if err := duckdb.RegisterScalarUDF(s.conn, ZonalUDFName, udf); err != nil {
		return fmt.Errorf("failed to register %s: %w", ZonalUDFName, err)
	}
	s.zonal = udf
	logging.Info().Str("function", ZonalUDFName).Msg("Registered scalar UDF")
	return nil
}

const zonalPopulationSQL = `
	WITH selected_boundary AS (
		SELECT ADM2_NAME AS adm_name, geom FROM boundaries WHERE ADM1_NAME = ?
	), ` + bufferedNegativeWealthSQL + `, grouped_admins AS (
		SELECT adm_name, ARRAY_AGG(ST_AsText(geom)) AS geometries
		FROM buffered_points
		GROUP BY adm_name
	)
	SELECT adm_name, ` + ZonalUDFName + `(geometries, CAST(? AS VARCHAR)) AS count_stats
	FROM grouped_admins
	ORDER BY adm_name`

// ZonalPopulation groups the buffered negative-wealth points of every
// municipality in department adm1 and sums the raster under each group
// through apply_zonal_stats. Results are ordered by municipality name.
func (s *Session) ZonalPopulation(ctx context.Context, adm1, rasterPath string, meters float64) ([]zonal.Result, error) {
	if meters <= 0 {
		return nil, fmt.Errorf("%w: buffer must be positive, got %v", ErrInvalidArgument, meters)
	}
	if rasterPath == "" {
		return nil, fmt.Errorf("%w: raster path is empty", ErrInvalidArgument)
	}
	if err := s.requireSpatial(); err != nil {
		return nil, err
	}
	udf := s.zonalUDF()
	if udf == nil {
		return nil, ErrZonalUDFNotRegistered
	}

	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	// udf.lastErr is shared by every statement on the connection; clear
	// and collect it under the same lock as the query.
	var result geometry.QueryResult
	err := s.withConn("zonal_population", TableWealthIndex, func(conn *sql.Conn) error {
		// Drop errors left behind by ad-hoc queries that called the function.
		_ = udf.takeError()

		var qerr error
		result, qerr = runQuery(ctx, conn, zonalPopulationSQL, adm1, meters, rasterPath)
		if udfErr := udf.takeError(); udfErr != nil {
			return udfErr
		}
		return qerr
	})
	if err != nil {
		return nil, err
	}

	results := make([]zonal.Result, 0, len(result.Rows))
	for _, row := range result.Rows {
		results = append(results, zonal.Result{
			Name: asString(row["adm_name"]),
			Sum:  asInt64(row["count_stats"]),
		})
	}
	return results, nil
}

func (s *Session) zonalUDF() *zonalUDF {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zonal
}
