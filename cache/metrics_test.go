package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Put(ctx, "User::1", "one")
	_, _ = store.GetMultiple(ctx, []string{"User::1", "User::2"})

	collector := NewCollector(store, "app", prometheus.Labels{"store": "primary"})

	if n := testutil.CollectAndCount(collector); n != 3 {
		t.Fatalf("expected 3 metrics, got %d", n)
	}

	expected := `
# HELP app_association_cache_entries Entries currently held by the association cache.
# TYPE app_association_cache_entries gauge
app_association_cache_entries{store="primary"} 1
# HELP app_association_cache_hits_total Lookups served from the association cache.
# TYPE app_association_cache_hits_total counter
app_association_cache_hits_total{store="primary"} 1
# HELP app_association_cache_misses_total Lookups the association cache could not serve.
# TYPE app_association_cache_misses_total counter
app_association_cache_misses_total{store="primary"} 1
`
	if err := testutil.CollectAndCompare(collector, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}
