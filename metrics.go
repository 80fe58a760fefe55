// Prometheus metrics.
//
// Grounded on the pack's direct prometheus/client_golang usage
// (homveloper-boss-raid-game, bunbase's platform module): Metrics is a
// prometheus.Collector a caller registers once and every open
// Collection reports through, keyed by collection name.
package holodoc

import "github.com/prometheus/client_golang/prometheus"

// CollectionStats is a point-in-time snapshot, also used by the "stats"
// CLI subcommand.
type CollectionStats struct {
	Name       string
	DocCount   int
	IndexCount int
}

// Metrics tracks per-collection document and index counts, and counts
// of update/remove/compaction operations, exported for Prometheus
// scraping.
type Metrics struct {
	docCount   *prometheus.GaugeVec
	indexCount *prometheus.GaugeVec
	operations *prometheus.CounterVec
	compactions *prometheus.CounterVec
}

// NewMetrics builds an unregistered Metrics. Callers register it with
// their own prometheus.Registry via Describe/Collect.
func NewMetrics() *Metrics {
	return &Metrics{
		docCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "holodoc",
			Name:      "documents",
			Help:      "Number of live documents in a collection.",
		}, []string{"collection"}),
		indexCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "holodoc",
			Name:      "indexes",
			Help:      "Number of indexes defined on a collection.",
		}, []string{"collection"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "holodoc",
			Name:      "operations_total",
			Help:      "Count of insert/update/remove operations by kind.",
		}, []string{"collection", "op"}),
		compactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "holodoc",
			Name:      "compactions_total",
			Help:      "Count of completed datafile compactions.",
		}, []string{"collection"}),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.docCount.Describe(ch)
	m.indexCount.Describe(ch)
	m.operations.Describe(ch)
	m.compactions.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.docCount.Collect(ch)
	m.indexCount.Collect(ch)
	m.operations.Collect(ch)
	m.compactions.Collect(ch)
}

func (m *Metrics) observeStats(st CollectionStats) {
	if m == nil {
		return
	}
	m.docCount.WithLabelValues(st.Name).Set(float64(st.DocCount))
	m.indexCount.WithLabelValues(st.Name).Set(float64(st.IndexCount))
}

func (m *Metrics) countOp(collection, op string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(collection, op).Inc()
}

func (m *Metrics) countCompaction(collection string) {
	if m == nil {
		return
	}
	m.compactions.WithLabelValues(collection).Inc()
}
