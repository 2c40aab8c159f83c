package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains Prometheus metrics for document store operations
type DatastoreMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	mutationsTotal    *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewDatastoreMetrics creates and registers new datastore metrics
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DatastoreMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_operations_total",
			Help: "Total number of document store operations",
		},
		[]string{"backend", "operation", "status"}, // operation: query, get, commit, transaction
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datastore_operation_duration_seconds",
			Help:    "Time taken for document store operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15), // 1ms to ~16s
		},
		[]string{"backend", "operation"},
	)

	m.mutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_committed_mutations_total",
			Help: "Mutations applied by successful batch commits",
		},
		[]string{"backend"},
	)

	m.collectors = []prometheus.Collector{m.operationsTotal, m.operationDuration, m.mutationsTotal}
}

// Describe implements the Collector interface
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordOperation records a store operation with its status and duration in seconds
func (m *DatastoreMetrics) RecordOperation(backend, operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(backend, operation, status).Inc()
	m.operationDuration.WithLabelValues(backend, operation).Observe(seconds)
}

// RecordMutations records mutations applied by a successful commit
func (m *DatastoreMetrics) RecordMutations(backend string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.mutationsTotal.WithLabelValues(backend).Add(float64(n))
}
