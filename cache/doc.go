// Package cache provides the keyed store behind the association cache.
//
// # Overview
//
// This package exports:
//
//   - Store: a concurrent keyed store with get-or-compute, raw put, batch get
//     and hit/miss counters
//   - GetOrFetch: a type-safe wrapper around Store.Get
//   - Switch: the process-wide flag that gates whether cached associations
//     touch the store at all
//   - Collector: a Prometheus collector over the store counters
//
// # Basic Usage
//
//	store, err := cache.NewStore(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	user, err := cache.GetOrFetch(ctx, store, "User::42", func(ctx context.Context) (*User, error) {
//		return users.FindByID(ctx, 42)
//	})
//
// # Backends
//
// The default "memory" backend never evicts and never expires entries. Entries
// are written on the first successful load, overwritten by explicit puts and
// removed only by explicit deletes. The "sturdyc" backend trades that for a
// capacity bound and a TTL.
//
// # Counters
//
// Hits and misses are counted per distinct key. Put never changes them. Clear
// resets them along with the entries; ResetCounters resets only the counters.
//
// # Concurrency
//
// Both backends are safe for concurrent use. Concurrent misses on the same key
// are not collapsed into one fetch: each caller may load from the source and
// the last write wins.
package cache
