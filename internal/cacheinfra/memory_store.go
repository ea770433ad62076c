package cacheinfra

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// memoryStore keeps entries in a concurrent map. There is no eviction and no
// expiry; entries leave only through Delete or Clear.
type memoryStore struct {
	counters
	entries *xsync.MapOf[string, any]
}

// NewMemoryStore creates an empty unbounded store.
func NewMemoryStore() Store {
	return &memoryStore{entries: xsync.NewMapOf[string, any]()}
}

// Get returns the cached value for key, or invokes fetchFn once and stores its
// result. A failing or nil result is not stored.
func (s *memoryStore) Get(ctx context.Context, key string, fetchFn func(context.Context) (any, error)) (any, error) {
	if v, ok := s.entries.Load(key); ok {
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
		s.entries.Store(key, v)
	}
	return v, nil
}

func (s *memoryStore) Put(_ context.Context, key string, value any) error {
	s.entries.Store(key, value)
	return nil
}

func (s *memoryStore) GetMultiple(_ context.Context, keys []string) (map[string]any, error) {
	keys = distinct(keys)
	found := make(map[string]any, len(keys))
	for _, key := range keys {
		if v, ok := s.entries.Load(key); ok {
			found[key] = v
		}
	}
	s.hit(len(found))
	s.miss(len(keys) - len(found))
	return found, nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.entries.Delete(key)
	return nil
}

func (s *memoryStore) Clear(_ context.Context) error {
	s.entries.Clear()
	s.ResetCounters()
	return nil
}

func (s *memoryStore) Keys() []string {
	keys := make([]string, 0, s.entries.Size())
	s.entries.Range(func(key string, _ any) bool {
		keys = append(keys, key)
		return true
	})
	return sorted(keys)
}

func (s *memoryStore) Len() int {
	return s.entries.Size()
}
