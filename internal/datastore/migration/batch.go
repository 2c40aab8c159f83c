package migration

import (
	"context"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/errors"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
	"github.com/yongshn220/wooriworship-sub001/internal/observability/metrics"
)

// BatchWriter accumulates mutations and commits them in batches of at most limit.
// It is not safe for concurrent use; each phase owns its own writer.
type BatchWriter struct {
	store   datastore.Store
	limit   int
	batch   datastore.Batch
	metrics *metrics.MigrationMetrics
	log     logger.Logger

	commits   int
	mutations int
}

// NewBatchWriter creates a writer committing at most limit mutations at a time.
// limit is clamped to 1..datastore.MaxBatchSize.
func NewBatchWriter(store datastore.Store, limit int, m *metrics.MigrationMetrics, log logger.Logger) *BatchWriter {
	return &BatchWriter{
		store:   store,
		limit:   clampBatch(limit),
		metrics: m,
		log:     log,
	}
}

// Stage appends a mutation. When the staged count reaches the limit the batch is
// committed before Stage returns.
func (w *BatchWriter) Stage(ctx context.Context, m datastore.Mutation) error {
	if w.batch == nil {
		w.batch = w.store.Batch()
	}
	m.Apply(w.batch)
	if w.batch.Len() >= w.limit {
		return w.commit(ctx)
	}
	return nil
}

// Set stages a full document write.
func (w *BatchWriter) Set(ctx context.Context, docPath string, data map[string]any) error {
	return w.Stage(ctx, datastore.Mutation{Kind: datastore.MutationSet, Path: docPath, Data: data})
}

// SetMerge stages a merge write.
func (w *BatchWriter) SetMerge(ctx context.Context, docPath string, data map[string]any) error {
	return w.Stage(ctx, datastore.Mutation{Kind: datastore.MutationSetMerge, Path: docPath, Data: data})
}

// Update stages a field update of an existing document.
func (w *BatchWriter) Update(ctx context.Context, docPath string, fields map[string]any) error {
	return w.Stage(ctx, datastore.Mutation{Kind: datastore.MutationUpdate, Path: docPath, Data: fields})
}

// Delete stages a document delete.
func (w *BatchWriter) Delete(ctx context.Context, docPath string) error {
	return w.Stage(ctx, datastore.Mutation{Kind: datastore.MutationDelete, Path: docPath})
}

// Flush commits any staged mutations. It is a no-op when nothing is staged.
func (w *BatchWriter) Flush(ctx context.Context) error {
	if w.batch == nil || w.batch.Len() == 0 {
		return nil
	}
	return w.commit(ctx)
}

// Pending returns the number of staged, uncommitted mutations.
func (w *BatchWriter) Pending() int {
	if w.batch == nil {
		return 0
	}
	return w.batch.Len()
}

// Commits returns the number of successful commits.
func (w *BatchWriter) Commits() int { return w.commits }

// Mutations returns the number of committed mutations.
func (w *BatchWriter) Mutations() int { return w.mutations }

func (w *BatchWriter) commit(ctx context.Context) error {
	n := w.batch.Len()
	if err := w.batch.Commit(ctx); err != nil {
		return errors.New(err).
			Component(componentMigration).
			Category(errors.CategoryDatabase).
			Context("operation", "batch_commit").
			Context("mutations", n).
			Build()
	}
	w.batch = nil
	w.commits++
	w.mutations += n
	w.metrics.RecordCommit(n)
	w.log.Trace("batch committed", logger.Int("mutations", n), logger.Int("commits", w.commits))
	return nil
}
