package cacheinfra

import (
	"context"

	"github.com/viccon/sturdyc"
)

// sturdycStore wraps a sturdyc client. Capacity eviction and TTL expiry are
// handled by sturdyc; hit and miss accounting stays here so both backends
// report the same counters.
type sturdycStore struct {
	counters
	client *sturdyc.Client[any]
}

// NewSturdycStore creates a bounded store backed by sturdyc.
//
// Capacity, NumShards, TTL and EvictionPercentage are passed to sturdyc.New();
// other options are applied via ToSturdycOptions().
func NewSturdycStore(cfg Config) (Store, error) {
	cfg.Backend = BackendSturdyc
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &sturdycStore{client: client}, nil
}

// Get does not use sturdyc's own GetOrFetch: that path adds request
// deduplication and missing record markers, and a failed fetch must leave the
// store untouched.
func (s *sturdycStore) Get(ctx context.Context, key string, fetchFn func(context.Context) (any, error)) (any, error) {
	if v, ok := s.client.Get(key); ok {
		s.hit(1)
		return v, nil
	}
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	s.miss(1)
	v, err := fetchFn(ctx)
	if err != nil {
		return nil, err
	}
	if v != nil {
		s.client.Set(key, v)
	}
	return v, nil
}

func (s *sturdycStore) Put(_ context.Context, key string, value any) error {
	s.client.Set(key, value)
	return nil
}

func (s *sturdycStore) GetMultiple(_ context.Context, keys []string) (map[string]any, error) {
	keys = distinct(keys)
	found := s.client.GetMany(keys)
	if found == nil {
		found = make(map[string]any)
	}
	s.hit(len(found))
	s.miss(len(keys) - len(found))
	return found, nil
}

func (s *sturdycStore) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

func (s *sturdycStore) Clear(_ context.Context) error {
	for _, key := range s.client.ScanKeys() {
		s.client.Delete(key)
	}
	s.ResetCounters()
	return nil
}

func (s *sturdycStore) Keys() []string {
	return sorted(s.client.ScanKeys())
}

func (s *sturdycStore) Len() int {
	return s.client.Size()
}
