package cache

import (
	"context"
	"errors"
	"reflect"
)

// ErrInvalidResultType is returned by GetOrFetch when a cached value cannot be
// converted to the requested type.
var ErrInvalidResultType = errors.New("cache: invalid result type")

// FetchFn is the function signature GetOrFetch expects when loading from the
// source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Store is the keyed cache consumed by the loaders. Implementations must be
// safe for concurrent use. Concurrent misses for the same key are not
// collapsed: each caller may run its own fetch.
type Store interface {
	// Get returns the cached value for key and counts a hit. On a miss it
	// counts a miss, invokes fetchFn once, stores a non-nil result and returns
	// it. A fetch error is returned unchanged and nothing is stored.
	Get(ctx context.Context, key string, fetchFn func(context.Context) (any, error)) (any, error)
	// Put overwrites key unconditionally without touching the counters.
	Put(ctx context.Context, key string, value any) error
	// GetMultiple returns the subset of keys currently present. Each distinct
	// key found counts as a hit, each distinct key absent as a miss.
	GetMultiple(ctx context.Context, keys []string) (map[string]any, error)
	// Delete removes key if present.
	Delete(ctx context.Context, key string) error
	// Clear drops every entry and resets the counters.
	Clear(ctx context.Context) error
	ResetCounters()
	Hits() int64
	Misses() int64
	// Keys returns the current keys in lexical order.
	Keys() []string
	Len() int
}

// GetOrFetch is a type-safe wrapper around Store.Get.
func GetOrFetch[T any](ctx context.Context, store Store, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := store.Get(ctx, key, func(ctx context.Context) (any, error) {
		v, err := fetchFn(ctx)
		if err != nil {
			return nil, err
		}
		if isNil(v) {
			return nil, nil
		}
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, ErrInvalidResultType
	}
	return typed, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
