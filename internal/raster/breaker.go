// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package raster

import (
	"errors"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/geocookbook/internal/logging"
	"github.com/tomtom215/geocookbook/internal/metrics"
)

// BreakerConfig configures BreakerOpener.
type BreakerConfig struct {
	// Failures is the number of consecutive open failures that trips the
	// breaker for a path.
	Failures uint32
	// Timeout is how long a tripped breaker rejects opens before letting a
	// single probe through.
	Timeout time.Duration
}

// DefaultBreakerConfig trips after 5 consecutive failures and probes again
// after 30 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{Failures: 5, Timeout: 30 * time.Second}
}

// BreakerOpener wraps an Opener with one circuit breaker per path, so an
// unreachable remote raster fails fast instead of being retried by every
// zonal call. Rejected opens return an error wrapping gobreaker.ErrOpenState.
type BreakerOpener struct {
	next Opener
	cfg  BreakerConfig

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[Grid]
}

// NewBreakerOpener wraps next. Zero fields of cfg take the defaults.
func NewBreakerOpener(next Opener, cfg BreakerConfig) *BreakerOpener {
	def := DefaultBreakerConfig()
	if cfg.Failures == 0 {
		cfg.Failures = def.Failures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &BreakerOpener{
		next:     next,
		cfg:      cfg,
		breakers: make(map[string]*gobreaker.CircuitBreaker[Grid]),
	}
}

// Open opens path through its breaker.
func (o *BreakerOpener) Open(path string) (Grid, error) {
	cb := o.breaker(path)
	grid, err := cb.Execute(func() (Grid, error) {
		return o.next.Open(path)
	})

	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(path, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(path, "rejected").Inc()
		logging.Warn().Str("raster", path).Err(err).Msg("Raster open rejected by circuit breaker")
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(path, "failure").Inc()
	}
	return grid, err
}

// State returns the breaker state of path. Paths never opened are closed.
func (o *BreakerOpener) State(path string) gobreaker.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cb, ok := o.breakers[path]; ok {
		return cb.State()
	}
	return gobreaker.StateClosed
}

func (o *BreakerOpener) breaker(path string) *gobreaker.CircuitBreaker[Grid] {
	o.mu.Lock()
	defer o.mu.Unlock()

	if cb, ok := o.breakers[path]; ok {
		return cb
	}
	failures := o.cfg.Failures
	cb := gobreaker.NewCircuitBreaker[Grid](gobreaker.Settings{
		Name:        path,
		MaxRequests: 1,
		Timeout:     o.cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("raster", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Raster circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(path).Set(0)
	o.breakers[path] = cb
	return cb
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
