// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRouter_NotFound(t *testing.T) {
	t.Parallel()

	w := serve(t, newTestHandler(newFakeSession(t)), "/api/v1/nope")
	expectStatus(t, w, http.StatusNotFound, codeNotFound)
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	router := NewRouter(newTestHandler(newFakeSession(t)), nil).SetupChi()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/tables", nil))
	expectStatus(t, w, http.StatusMethodNotAllowed, codeMethodNotAllowed)
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	h := newTestHandler(newFakeSession(t))
	serve(t, h, "/api/v1/tables")

	w := serve(t, h, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "api_requests_total") {
		t.Error("metrics output lacks api_requests_total")
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	t.Parallel()

	w := serve(t, newTestHandler(newFakeSession(t)), "/api/v1/tables")
	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, value := range want {
		if got := w.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set on a plain HTTP request")
	}
}

func TestRouter_RequestID(t *testing.T) {
	t.Parallel()

	router := NewRouter(newTestHandler(newFakeSession(t)), nil).SetupChi()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "trace-123" {
		t.Errorf("X-Request-ID = %q", got)
	}
	resp, _ := decodeResponse(t, w)
	if resp.Metadata.RequestID != "trace-123" {
		t.Errorf("metadata request_id = %q", resp.Metadata.RequestID)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	router := NewRouter(newTestHandler(newFakeSession(t)), NewChiMiddleware(cfg)).SetupChi()

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		router.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil))
		if i < 2 && last.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, last.Code)
		}
	}
	expectStatus(t, last, http.StatusTooManyRequests, codeRateLimit)

	// Health checks have their own budget.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()

	router := NewRouter(newTestHandler(newFakeSession(t)), nil).SetupChi()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tables", nil)
	req.Header.Set("Origin", "https://maps.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if w.Code >= 300 {
		t.Errorf("preflight status = %d", w.Code)
	}
}
