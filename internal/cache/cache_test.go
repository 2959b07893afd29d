// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCacheBasicOperations(t *testing.T) {
	c := New[string]("basic", 10, time.Minute)

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists || value != "value1" {
		t.Errorf("Get(key1) = %q, %v", value, exists)
	}

	if _, exists := c.Get("key2"); exists {
		t.Error("Expected key2 to not exist")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 || stats.HitRate != 50 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestCacheExpiration(t *testing.T) {
	c := New[int]("expiry", 10, 50*time.Millisecond)

	c.Set("key1", 1)
	if _, exists := c.Get("key1"); !exists {
		t.Fatal("Expected key1 to exist immediately after set")
	}

	time.Sleep(120 * time.Millisecond)

	if _, exists := c.Get("key1"); exists {
		t.Error("Expected key1 to be expired")
	}
}

func TestCacheEviction(t *testing.T) {
	c := New[int]("eviction", 2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry b should be evicted")
	}
	for _, key := range []string{"a", "c"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s should still be cached", key)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCachePurge(t *testing.T) {
	c := New[string]("purge", 10, time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("key%d", i), "v")
	}

	c.Purge()

	if c.Len() != 0 {
		t.Errorf("Len() = %d after Purge", c.Len())
	}
}

func TestNewDefaults(t *testing.T) {
	c := New[int]("defaults", 0, 0)
	for i := 0; i < DefaultSize+10; i++ {
		c.Set(fmt.Sprint(i), i)
	}
	if c.Len() != DefaultSize {
		t.Errorf("Len() = %d, want DefaultSize %d", c.Len(), DefaultSize)
	}
}

func TestGetOrLoad(t *testing.T) {
	ctx := context.Background()
	c := New[int]("load", 10, time.Minute)

	var calls int
	load := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	v, cached, err := c.GetOrLoad(ctx, "answer", load)
	if err != nil || v != 42 || cached {
		t.Fatalf("first GetOrLoad() = %d, %v, %v", v, cached, err)
	}
	v, cached, err = c.GetOrLoad(ctx, "answer", load)
	if err != nil || v != 42 || !cached {
		t.Fatalf("second GetOrLoad() = %d, %v, %v", v, cached, err)
	}
	if calls != 1 {
		t.Errorf("load called %d times, want 1", calls)
	}
}

func TestGetOrLoad_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	c := New[int]("errors", 10, time.Minute)
	boom := errors.New("raster unavailable")

	if _, _, err := c.GetOrLoad(ctx, "k", func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("GetOrLoad() error = %v, want %v", err, boom)
	}
	if c.Len() != 0 {
		t.Error("failed load was cached")
	}

	v, cached, err := c.GetOrLoad(ctx, "k", func(context.Context) (int, error) { return 7, nil })
	if err != nil || v != 7 || cached {
		t.Errorf("retry GetOrLoad() = %d, %v, %v", v, cached, err)
	}
}

func TestGetOrLoad_CollapsesConcurrentLoads(t *testing.T) {
	c := New[int]("singleflight", 10, time.Minute)

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 1284, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.GetOrLoad(context.Background(), "ATLANTICO", load)
			if err != nil {
				t.Errorf("GetOrLoad() error = %v", err)
			}
			results <- v
		}()
	}

	// Let the callers pile up on the in-flight load.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for v := range results {
		if v != 1284 {
			t.Errorf("result = %d, want 1284", v)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("load ran %d times, want 1", calls.Load())
	}
}

func TestGetOrLoad_LeaderCancelDoesNotFailFollowers(t *testing.T) {
	c := New[int]("detached", 10, time.Minute)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	load := func(ctx context.Context) (int, error) {
		calls.Add(1)
		once.Do(func() { close(started) })
		<-release
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 2400, nil
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, _, err := c.GetOrLoad(leaderCtx, "CALDAS", load)
		leaderErr <- err
	}()
	<-started
	cancel()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("leader GetOrLoad() error = %v, want context.Canceled", err)
	}

	type result struct {
		v   int
		err error
	}
	follower := make(chan result, 1)
	go func() {
		v, _, err := c.GetOrLoad(context.Background(), "CALDAS", load)
		follower <- result{v, err}
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)

	got := <-follower
	if got.err != nil || got.v != 2400 {
		t.Fatalf("follower GetOrLoad() = %d, %v; want 2400, nil", got.v, got.err)
	}
	if calls.Load() != 1 {
		t.Errorf("load ran %d times, want 1", calls.Load())
	}
	if v, ok := c.Get("CALDAS"); !ok || v != 2400 {
		t.Errorf("Get(CALDAS) = %d, %v; want cached 2400", v, ok)
	}
}

func TestGetOrLoad_KeepsCallerDeadline(t *testing.T) {
	c := New[int]("deadline", 10, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	want, _ := ctx.Deadline()

	_, _, err := c.GetOrLoad(ctx, "ATLANTICO", func(loadCtx context.Context) (int, error) {
		got, ok := loadCtx.Deadline()
		if !ok || !got.Equal(want) {
			return 0, fmt.Errorf("load deadline = %v, %v; want %v", got, ok, want)
		}
		return 1, nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestNilCache(t *testing.T) {
	var c *Cache[string]

	c.Set("k", "v")
	if _, ok := c.Get("k"); ok {
		t.Error("nil cache returned a value")
	}
	c.Purge()
	if c.Len() != 0 || c.Stats() != (Stats{}) {
		t.Error("nil cache reports entries")
	}

	calls := 0
	for i := 0; i < 2; i++ {
		v, cached, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) {
			calls++
			return "fresh", nil
		})
		if err != nil || v != "fresh" || cached {
			t.Errorf("GetOrLoad() = %q, %v, %v", v, cached, err)
		}
	}
	if calls != 2 {
		t.Errorf("load called %d times, want 2", calls)
	}
}

func TestGenerateKey(t *testing.T) {
	type params struct {
		Adm1   string  `json:"adm1"`
		Meters float64 `json:"meters"`
	}

	a := GenerateKey("zonal", params{"ATLANTICO", 2400})
	b := GenerateKey("zonal", params{"ATLANTICO", 2400})
	c := GenerateKey("zonal", params{"ATLANTICO", 1200})
	d := GenerateKey("map", params{"ATLANTICO", 2400})

	if a != b {
		t.Errorf("equal params gave %s and %s", a, b)
	}
	if a == c || a == d {
		t.Error("different params or operations share a key")
	}
	if !strings.HasPrefix(a, "zonal:") || len(a) != len("zonal:")+16 {
		t.Errorf("key = %q, want operation prefix and 16 hex digits", a)
	}
}
