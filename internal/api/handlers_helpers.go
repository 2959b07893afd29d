// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"

	"github.com/tomtom215/geocookbook/internal/logging"
	"github.com/tomtom215/geocookbook/internal/middleware"
	"github.com/tomtom215/geocookbook/internal/models"
	"github.com/tomtom215/geocookbook/internal/validation"
)

// sanitizeLogValue replaces control characters so client input cannot
// forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON writes response. Successful responses carry an ETag over
// the payload, and a matching If-None-Match gets 304 without a body.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	if r != nil {
		response.Metadata.RequestID = middleware.GetRequestID(r.Context())
	}

	var etag string
	if status == http.StatusOK {
		payload, err := json.Marshal(response.Data)
		if err != nil {
			logging.Error().Err(err).Msg("Failed to marshal JSON payload")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		// The timestamp and request ID change on every request; the
		// payload alone decides the ETag.
		etag = generateETag(payload)
		response.Data = json.RawMessage(payload)
	}

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Vary", "Accept-Encoding")
	if etag != "" {
		w.Header().Set("ETag", etag)
		if r != nil && r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates a quoted ETag from the xxHash64 of data.
func generateETag(data []byte) string {
	return `"` + strconv.FormatUint(xxhash.Sum64(data), 16) + `"`
}

// respondSuccess wraps data in a success envelope timed from start.
func respondSuccess(w http.ResponseWriter, r *http.Request, data interface{}, start time.Time) {
	respondJSON(w, r, http.StatusOK, models.NewSuccessResponse(data, time.Since(start)))
}

// respondError sends an error envelope. err, when set, is logged with the
// request ID and never sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		event := logging.Error()
		if status < http.StatusInternalServerError {
			event = logging.Warn()
		}
		if r != nil {
			event = event.Str("request_id", middleware.GetRequestID(r.Context())).Str("path", r.URL.Path)
		}
		event.Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, r, status, models.NewErrorResponse(code, message, nil))
}

// respondSessionError maps err with classifyError and responds.
func respondSessionError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classifyError(err)
	respondError(w, r, status, code, message, err)
}

// respondAPIError sends a 400 built from a validation failure.
func respondAPIError(w http.ResponseWriter, r *http.Request, apiErr *models.APIError) {
	resp := models.NewErrorResponse(apiErr.Code, apiErr.Message, apiErr.Details)
	respondJSON(w, r, http.StatusBadRequest, resp)
}

// requireGet rejects methods other than GET and HEAD. chi routes only
// register GET, so this matters for direct handler use.
func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	respondError(w, r, http.StatusMethodNotAllowed, codeMethodNotAllowed, "Method not allowed", nil)
	return false
}

// validateRequest validates a struct using go-playground/validator.
func validateRequest(v interface{}) *models.APIError {
	errs := validation.ValidateStruct(v)
	if errs == nil {
		return nil
	}

	message, details := errs.Summary()
	return &models.APIError{
		Code:    codeValidation,
		Message: message,
		Details: details,
	}
}

// paramError reports a query parameter that is not a number.
func paramError(key, value, kind string) *models.APIError {
	return &models.APIError{
		Code:    codeValidation,
		Message: fmt.Sprintf("%s must be %s", key, kind),
		Details: map[string]interface{}{
			"field": key,
			"value": sanitizeLogValue(value),
		},
	}
}

// getIntParam parses an integer query parameter, returning defaultValue
// when it is absent.
func getIntParam(r *http.Request, key string, defaultValue int) (int, *models.APIError) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, paramError(key, value, "an integer")
	}
	return n, nil
}

// getFloatParam parses a finite float query parameter, returning
// defaultValue when it is absent.
func getFloatParam(r *http.Request, key string, defaultValue float64) (float64, *models.APIError) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, paramError(key, value, "a number")
	}
	return f, nil
}

// getStringParam returns the trimmed query parameter.
func getStringParam(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
