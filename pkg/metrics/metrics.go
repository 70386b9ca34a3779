package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bikeshop"

// CatalogMetrics records product catalog fetches.
type CatalogMetrics struct {
	duration prometheus.Histogram
	fetches  *prometheus.CounterVec
	products prometheus.Gauge
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "catalog_fetch_duration_seconds",
		Help:      "Duration of product catalog fetches in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_fetches_total",
		Help:      "Product catalog fetches by result.",
	}, []string{"result"})
	products := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_products",
		Help:      "Number of products in the last successful catalog fetch.",
	})
	reg.MustRegister(duration, fetches, products)
	return &CatalogMetrics{duration: duration, fetches: fetches, products: products}
}

// ObserveFetch records one fetch; size is ignored when err is non-nil.
func (c *CatalogMetrics) ObserveFetch(d time.Duration, size int, err error) {
	if c == nil || c.fetches == nil {
		return
	}
	c.duration.Observe(d.Seconds())
	if err != nil {
		c.fetches.WithLabelValues("failure").Inc()
		return
	}
	c.fetches.WithLabelValues("success").Inc()
	c.products.Set(float64(size))
}

// CartMetrics records cart mutations.
type CartMetrics struct {
	mutations *prometheus.CounterVec
	entries   prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Cart mutations by operation and result.",
	}, []string{"op", "result"})
	entries := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cart_entries",
		Help:      "Distinct products currently in the cart.",
	})
	reg.MustRegister(mutations, entries)
	return &CartMetrics{mutations: mutations, entries: entries}
}

// IncMutation counts one mutation attempt.
func (c *CartMetrics) IncMutation(op string, err error) {
	if c == nil || c.mutations == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.mutations.WithLabelValues(normalizeLabel(op), result).Inc()
}

// SetEntries records the current number of cart entries.
func (c *CartMetrics) SetEntries(n int) {
	if c == nil || c.entries == nil {
		return
	}
	c.entries.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
