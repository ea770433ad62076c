package cache

import "github.com/prometheus/client_golang/prometheus"

// Collector exports Store counters to Prometheus.
type Collector struct {
	store   Store
	hits    *prometheus.Desc
	misses  *prometheus.Desc
	entries *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector reading from store on every scrape.
func NewCollector(store Store, namespace string, constLabels prometheus.Labels) *Collector {
	return &Collector{
		store: store,
		hits: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "association_cache", "hits_total"),
			"Lookups served from the association cache.",
			nil, constLabels,
		),
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "association_cache", "misses_total"),
			"Lookups the association cache could not serve.",
			nil, constLabels,
		),
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "association_cache", "entries"),
			"Entries currently held by the association cache.",
			nil, constLabels,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.entries
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(c.store.Hits()))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(c.store.Misses()))
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(c.store.Len()))
}
