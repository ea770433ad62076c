package testsupport

import (
	"context"
	"sync"

	"github.com/goliatone/go-association-cache/entity"
	"github.com/goliatone/go-association-cache/store"
)

// Call records one store round trip.
type Call struct {
	Method string
	Type   string
	IDs    []int64
	Filter store.Filter
}

// CountingFinder wraps a store.Finder and records every call.
type CountingFinder struct {
	store.Finder

	mu    sync.Mutex
	calls []Call
	// Err, when set, is returned by every call instead of delegating.
	Err error
}

// NewCountingFinder wraps next.
func NewCountingFinder(next store.Finder) *CountingFinder {
	return &CountingFinder{Finder: next}
}

func (f *CountingFinder) record(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.Err
}

// Calls returns the recorded calls.
func (f *CountingFinder) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls to method.
func (f *CountingFinder) CallsTo(method string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (f *CountingFinder) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *CountingFinder) FindByID(ctx context.Context, typeName string, id int64) (entity.Entity, error) {
	if err := f.record(Call{Method: "FindByID", Type: typeName, IDs: []int64{id}}); err != nil {
		return nil, err
	}
	return f.Finder.FindByID(ctx, typeName, id)
}

func (f *CountingFinder) FindByIDs(ctx context.Context, typeName string, ids []int64) ([]entity.Entity, error) {
	if err := f.record(Call{Method: "FindByIDs", Type: typeName, IDs: append([]int64(nil), ids...)}); err != nil {
		return nil, err
	}
	return f.Finder.FindByIDs(ctx, typeName, ids)
}

func (f *CountingFinder) SelectIDs(ctx context.Context, typeName string, filter store.Filter) ([]int64, error) {
	if err := f.record(Call{Method: "SelectIDs", Type: typeName, Filter: filter}); err != nil {
		return nil, err
	}
	return f.Finder.SelectIDs(ctx, typeName, filter)
}

func (f *CountingFinder) FindAll(ctx context.Context, typeName string, filter store.Filter) ([]entity.Entity, error) {
	if err := f.record(Call{Method: "FindAll", Type: typeName, Filter: filter}); err != nil {
		return nil, err
	}
	return f.Finder.FindAll(ctx, typeName, filter)
}

func (f *CountingFinder) FindBySQL(ctx context.Context, typeName string, query string, args ...any) ([]entity.Entity, error) {
	if err := f.record(Call{Method: "FindBySQL", Type: typeName}); err != nil {
		return nil, err
	}
	return f.Finder.FindBySQL(ctx, typeName, query, args...)
}
