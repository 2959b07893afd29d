// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/geocookbook/internal/models"
)

// readinessTimeout bounds the session ping of a readiness probe.
const readinessTimeout = 2 * time.Second

// HealthLive handles liveness probes. It never touches the session.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	})
}

// HealthReady handles readiness probes: 200 when the session answers a
// ping and the spatial extension is loaded, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	status := h.healthStatus(r.Context())
	statusCode := http.StatusOK
	envelope := "success"
	if status.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
		envelope = "error"
	}

	respondJSON(w, r, statusCode, &models.APIResponse{
		Status: envelope,
		Data:   status,
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	})
}

func (h *Handler) healthStatus(ctx context.Context) models.HealthStatus {
	status := models.HealthStatus{
		Status:  "degraded",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
	}
	if h.session == nil {
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	status.DatabaseConnected = h.session.Ping(ctx) == nil
	status.SpatialAvailable = h.session.SpatialAvailable()
	status.HTTPFSAvailable = h.session.HTTPFSAvailable()
	if status.DatabaseConnected && status.SpatialAvailable {
		status.Status = "healthy"
	}
	return status
}
