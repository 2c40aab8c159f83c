// Package metrics provides Prometheus collectors for the migration engine and its document store.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MigrationMetrics contains Prometheus metrics for migration phases and commits.
// A nil *MigrationMetrics is valid and records nothing.
type MigrationMetrics struct {
	phaseDuration    *prometheus.HistogramVec
	phaseRunsTotal   *prometheus.CounterVec
	batchCommits     prometheus.Counter
	batchSize        prometheus.Histogram
	documentsTotal   *prometheus.CounterVec
	deletedDocuments *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewMigrationMetrics creates and registers migration metrics
func NewMigrationMetrics(registry *prometheus.Registry) (*MigrationMetrics, error) {
	m := &MigrationMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MigrationMetrics) initMetrics() {
	m.phaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "migration_phase_duration_seconds",
			Help:    "Time taken by each migration phase",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
		},
		[]string{"phase", "status"},
	)

	m.phaseRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migration_phase_runs_total",
			Help: "Total number of migration phase executions",
		},
		[]string{"phase", "status"},
	)

	m.batchCommits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "migration_batch_commits_total",
			Help: "Total number of batch commits issued by the migration engine",
		},
	)

	m.batchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "migration_batch_size",
			Help:    "Number of mutations per committed batch",
			Buckets: []float64{1, 10, 50, 100, 250, 400, 500},
		},
	)

	m.documentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migration_documents_total",
			Help: "Documents processed by migration phases",
		},
		[]string{"phase", "outcome"},
	)

	m.deletedDocuments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migration_deleted_documents_total",
			Help: "Documents removed by paginated collection deletes",
		},
		[]string{"collection"},
	)

	m.collectors = []prometheus.Collector{
		m.phaseDuration,
		m.phaseRunsTotal,
		m.batchCommits,
		m.batchSize,
		m.documentsTotal,
		m.deletedDocuments,
	}
}

// Describe implements the Collector interface
func (m *MigrationMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *MigrationMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordPhase records a finished phase and how long it took.
func (m *MigrationMetrics) RecordPhase(phase, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.phaseRunsTotal.WithLabelValues(phase, status).Inc()
	m.phaseDuration.WithLabelValues(phase, status).Observe(duration.Seconds())
}

// RecordCommit records one committed batch of size mutations.
func (m *MigrationMetrics) RecordCommit(size int) {
	if m == nil {
		return
	}
	m.batchCommits.Inc()
	m.batchSize.Observe(float64(size))
}

// RecordDocuments adds n documents with the given outcome to a phase.
func (m *MigrationMetrics) RecordDocuments(phase, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.documentsTotal.WithLabelValues(phase, outcome).Add(float64(n))
}

// RecordDeleted adds n deleted documents for a collection path.
func (m *MigrationMetrics) RecordDeleted(collection string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.deletedDocuments.WithLabelValues(collection).Add(float64(n))
}

// WriteTextfile writes every metric gathered by registry to path in the
// node_exporter textfile collector format.
func WriteTextfile(registry *prometheus.Registry, path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, registry)
}
