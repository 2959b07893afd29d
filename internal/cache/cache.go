// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

// Package cache holds computed API responses in memory for a bounded time.
//
// Map documents and zonal sums are deterministic for a given request while
// the datasets stay loaded, and the zonal ones read the population raster
// on every call. A Cache keeps up to Size results for TTL each and
// collapses concurrent identical requests into one computation.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/geocookbook/internal/metrics"
)

// Default bounds used when New gets non-positive values.
const (
	DefaultSize = 256
	DefaultTTL  = 10 * time.Minute
)

// Cache is a size- and time-bounded LRU of successful results.
//
// A nil *Cache is valid and caches nothing, so callers can disable caching
// by not creating one.
type Cache[V any] struct {
	name  string
	lru   *expirable.LRU[string, V]
	group singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Entries int     `json:"entries"`
	HitRate float64 `json:"hit_rate"` // percent
}

// New creates a cache named name (the metrics label).
func New[V any](name string, size int, ttl time.Duration) *Cache[V] {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		name: name,
		lru:  expirable.NewLRU[string, V](size, nil, ttl),
	}
}

// Get returns the live entry for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	metrics.RecordCacheLookup(c.name, ok, c.lru.Len())
	return v, ok
}

// Set stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *Cache[V]) Set(key string, value V) {
	if c == nil {
		return
	}
	c.lru.Add(key, value)
}

// GetOrLoad returns the cached value for key or computes it with load.
// Concurrent callers with the same key share one load and its result.
// Errors are returned but never cached. cached reports a hit.
//
// The shared load runs on a context that is not canceled with the caller
// that started it but keeps that caller's deadline. A caller whose own ctx
// ends stops waiting and gets ctx.Err().
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (value V, cached bool, err error) {
	if c == nil {
		value, err = load(ctx)
		return value, false, err
	}
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := detach(ctx)
		defer cancel()

		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})

	var zero V
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		v, _ := res.Val.(V)
		return v, false, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// detach returns a context carrying ctx's values and deadline but not its
// cancellation.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(detached, deadline)
	}
	return detached, func() {}
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
	metrics.CacheEntries.WithLabelValues(c.name).Set(0)
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Stats returns hit and miss counts since creation.
func (c *Cache[V]) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	s := Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.lru.Len(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100
	}
	return s
}

// GenerateKey derives a compact key from an operation name and its
// parameters.
func GenerateKey(operation string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", operation, params)
	}
	return fmt.Sprintf("%s:%016x", operation, xxhash.Sum64(data))
}
