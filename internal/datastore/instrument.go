package datastore

import (
	"context"
	"time"

	"github.com/yongshn220/wooriworship-sub001/internal/errors"
	"github.com/yongshn220/wooriworship-sub001/internal/observability/metrics"
)

// Instrument wraps s so every query, read, commit and transaction is recorded in m
// under the given backend label. A nil m returns s unchanged.
func Instrument(s Store, backend string, m *metrics.DatastoreMetrics) Store {
	if m == nil {
		return s
	}
	return &instrumentedStore{Store: s, backend: backend, metrics: m}
}

type instrumentedStore struct {
	Store
	backend string
	metrics *metrics.DatastoreMetrics
}

func (s *instrumentedStore) record(operation string, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	s.metrics.RecordOperation(s.backend, operation, status, time.Since(start).Seconds())
}

func (s *instrumentedStore) Query(ctx context.Context, q Query) ([]Document, error) {
	start := time.Now()
	docs, err := s.Store.Query(ctx, q)
	s.record(metrics.OpQuery, start, err)
	return docs, err
}

func (s *instrumentedStore) Get(ctx context.Context, docPath string) (*Document, error) {
	start := time.Now()
	doc, err := s.Store.Get(ctx, docPath)
	if errors.Is(err, ErrNotFound) {
		s.record(metrics.OpGet, start, nil)
	} else {
		s.record(metrics.OpGet, start, err)
	}
	return doc, err
}

func (s *instrumentedStore) Batch() Batch {
	return &instrumentedBatch{Batch: s.Store.Batch(), parent: s}
}

func (s *instrumentedStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	start := time.Now()
	err := s.Store.RunTransaction(ctx, fn)
	s.record(metrics.OpTransaction, start, err)
	return err
}

type instrumentedBatch struct {
	Batch
	parent *instrumentedStore
}

func (b *instrumentedBatch) Commit(ctx context.Context) error {
	n := b.Batch.Len()
	start := time.Now()
	err := b.Batch.Commit(ctx)
	b.parent.record(metrics.OpCommit, start, err)
	if err == nil {
		b.parent.metrics.RecordMutations(b.parent.backend, n)
	}
	return err
}
