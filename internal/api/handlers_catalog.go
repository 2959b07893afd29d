// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/geocookbook/internal/database"
	"github.com/tomtom215/geocookbook/internal/models"
)

// Tables lists the tables and views of the session.
func (h *Handler) Tables(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	start := time.Now()
	ctx, cancel := h.queryContext(r.Context())
	defer cancel()

	tables, err := h.session.Tables(ctx)
	if err != nil {
		respondSessionError(w, r, err)
		return
	}
	respondSuccess(w, r, tables, start)
}

// DescribeTable lists the columns of the table named in the path.
func (h *Handler) DescribeTable(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	start := time.Now()

	req := TableRequest{Name: chi.URLParam(r, "name")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}

	ctx, cancel := h.queryContext(r.Context())
	defer cancel()

	columns, err := h.session.Describe(ctx, req.Name)
	if err != nil {
		respondSessionError(w, r, err)
		return
	}
	respondSuccess(w, r, models.TableDescription{Name: req.Name, Columns: columns}, start)
}

// Drivers lists the vector formats ST_Read can open.
func (h *Handler) Drivers(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	start := time.Now()
	ctx, cancel := h.queryContext(r.Context())
	defer cancel()

	drivers, err := h.session.Drivers(ctx)
	if err != nil {
		respondSessionError(w, r, err)
		return
	}
	respondSuccess(w, r, drivers, start)
}

// Measures returns area and length of the demo point, line and polygon.
func (h *Handler) Measures(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	start := time.Now()
	ctx, cancel := h.queryContext(r.Context())
	defer cancel()

	measures, err := h.session.GeometryMeasures(ctx)
	if err != nil {
		respondSessionError(w, r, err)
		return
	}
	respondSuccess(w, r, measures, start)
}

// Admins lists department (level=1) or municipality (level=2, default)
// names for pickers.
func (h *Handler) Admins(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	start := time.Now()

	level, apiErr := getIntParam(r, "level", database.AdminLevel2)
	if apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}
	req := AdminsRequest{Level: level}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}

	ctx, cancel := h.queryContext(r.Context())
	defer cancel()

	names, err := h.session.AdminNames(ctx, req.Level)
	if err != nil {
		respondSessionError(w, r, err)
		return
	}
	respondSuccess(w, r, models.AdminNamesResponse{Level: req.Level, Names: names}, start)
}

// AreaStats counts the municipalities of a department and the negative
// wealth points of the dataset.
func (h *Handler) AreaStats(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	start := time.Now()

	req := AreaStatsRequest{Adm1: getStringParam(r, "adm1")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}

	ctx, cancel := h.queryContext(r.Context())
	defer cancel()

	municipalities, err := h.session.CountBoundariesInAdm1(ctx, req.Adm1)
	if err != nil {
		respondSessionError(w, r, err)
		return
	}
	negative, err := h.session.CountNegativeWealth(ctx)
	if err != nil {
		respondSessionError(w, r, err)
		return
	}

	respondSuccess(w, r, models.AreaStats{
		Adm1:                req.Adm1,
		Municipalities:      municipalities,
		NegativeWealthCount: negative,
	}, start)
}
