package cacheinfra

import (
	"context"
	"sort"
	"sync/atomic"
)

// Store is the backend contract. It mirrors cache.Store so the public package
// can hand these values out without an import cycle.
type Store interface {
	Get(ctx context.Context, key string, fetchFn func(context.Context) (any, error)) (any, error)
	Put(ctx context.Context, key string, value any) error
	GetMultiple(ctx context.Context, keys []string) (map[string]any, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	ResetCounters()
	Hits() int64
	Misses() int64
	Keys() []string
	Len() int
}

// counters tracks hits and misses. Embedded by every backend.
type counters struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *counters) hit(n int) {
	if n > 0 {
		c.hits.Add(int64(n))
	}
}

func (c *counters) miss(n int) {
	if n > 0 {
		c.misses.Add(int64(n))
	}
}

// Hits returns the number of lookups served from the store.
func (c *counters) Hits() int64 { return c.hits.Load() }

// Misses returns the number of lookups the store could not serve.
func (c *counters) Misses() int64 { return c.misses.Load() }

// ResetCounters zeroes hits and misses without touching entries.
func (c *counters) ResetCounters() {
	c.hits.Store(0)
	c.misses.Store(0)
}

func validateFetchFn(fetchFn func(context.Context) (any, error)) error {
	if fetchFn == nil {
		return &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}
	return nil
}

func distinct(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func sorted(keys []string) []string {
	sort.Strings(keys)
	return keys
}
